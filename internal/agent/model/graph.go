package model

// AppState stores per-invocation state for the chat graph.
// It is registered as graph local state via compose.WithGenLocalState and is
// only touched inside state handlers or compose.ProcessState, which eino
// serializes, so it carries no lock of its own.
type AppState struct {
	Input  ChatInput
	Crisis CrisisResult
	Prompt string

	// Source is the gateway outcome kind (cached, generated, fallback).
	Source         string
	FallbackReason string
}
