package model

// Severity grades how urgently a crisis message needs human attention.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RequiresImmediateAttention reports whether the severity warrants escalation.
func (s Severity) RequiresImmediateAttention() bool {
	return s == SeverityHigh || s == SeverityMedium
}

// Validation is the outcome of checking raw user input.
type Validation struct {
	Valid         bool
	Reason        string
	SanitizedText string
}

// CrisisResult is derived from a single message and never stored.
type CrisisResult struct {
	IsCrisis        bool     `json:"is_crisis"`
	Severity        Severity `json:"severity"`
	MatchedPatterns []string `json:"matched_patterns"`
}
