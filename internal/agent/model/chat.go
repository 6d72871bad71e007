package model

const (
	AgentListener = "listener"
	AgentCrisis   = "crisis"

	ResultTypeChat   = "chat"
	ResultTypeCrisis = "crisis"
)

// HistoryMessage is one prior turn supplied by the caller. Role is free text
// ("user", "assistant", ...) and is rendered verbatim into the prompt.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the public input of ProcessMessage.
type ChatRequest struct {
	Message string           `json:"message"`
	History []HistoryMessage `json:"history,omitempty"`
	Topic   string           `json:"topic,omitempty"`
	UserID  string           `json:"user_id,omitempty"`
}

// ChatInput is a validated request handed to the chat graph.
type ChatInput struct {
	RequestID string
	Message   string
	History   []HistoryMessage
	Topic     string
	UserID    string
}

// ChatResult is what the chat collaborator receives.
type ChatResult struct {
	Response       string         `json:"response"`
	Agent          string         `json:"agent"`
	CrisisDetected bool           `json:"crisis_detected"`
	CrisisLevel    *Severity      `json:"crisis_level"`
	Type           string         `json:"type"`
	Metadata       map[string]any `json:"metadata"`
}

// SupportMessage is returned whenever a chat reply cannot be produced.
const SupportMessage = "I'm here to listen and support you. Sometimes I have trouble connecting, but I'm still here for you. How are you feeling right now?"
