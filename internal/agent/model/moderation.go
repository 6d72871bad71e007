package model

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionBlock Decision = "block"
)

const (
	MethodModel     = "model"
	MethodRuleBased = "rule_based"
)

// ModerationResult is the verdict for a single forum post.
type ModerationResult struct {
	Decision       Decision `json:"decision"`
	Confidence     float64  `json:"confidence"`
	Reason         string   `json:"reason"`
	Method         string   `json:"method"`
	FlaggedContent []string `json:"flagged_content,omitempty"`
}
