// Package safety validates inbound messages and detects crisis language.
// Every chat request passes through a Gate before any model is consulted.
package safety

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/manmitra-core/server/internal/agent/model"
)

const DefaultMaxMessageLength = 2000

// DefaultCrisisKeywords is used when no keyword list is configured.
var DefaultCrisisKeywords = []string{
	"suicide", "kill myself", "end it", "don't want to live",
	"self harm", "hurt myself", "die", "death", "dead",
	"not worth living", "better off dead", "end my life",
}

// Gate is stateless after construction and safe for concurrent use.
type Gate struct {
	maxLength int
	keywords  []crisisKeyword
	rules     []SeverityRule
}

// crisisKeyword keeps the configured spelling for reporting next to the
// lower-cased form used for matching.
type crisisKeyword struct {
	label string
	match string
}

// New builds a Gate from configuration. A rules file, when set, replaces the
// built-in severity table.
func New(cfg model.SafetyConfig) (*Gate, error) {
	rules := DefaultSeverityRules()
	if cfg.RulesFile != "" {
		loaded, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return NewGate(cfg.CrisisKeywords, cfg.MaxMessageLength, rules), nil
}

// NewGate builds a Gate from explicit values; empty keywords or a
// non-positive length fall back to the defaults.
func NewGate(keywords []string, maxLength int, rules []SeverityRule) *Gate {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	kws := crisisKeywords(keywords)
	if len(kws) == 0 {
		kws = crisisKeywords(DefaultCrisisKeywords)
	}
	if len(rules) == 0 {
		rules = DefaultSeverityRules()
	}
	return &Gate{maxLength: maxLength, keywords: kws, rules: normalizeRules(rules)}
}

func (g *Gate) MaxLength() int { return g.maxLength }

// Validate trims text and checks it is non-empty and within the length
// limit. Length is counted in characters, not bytes.
func (g *Gate) Validate(text string) model.Validation {
	sanitized := strings.TrimSpace(text)
	if sanitized == "" {
		return model.Validation{Reason: "Message cannot be empty"}
	}
	if utf8.RuneCountInString(sanitized) > g.maxLength {
		return model.Validation{
			Reason:        fmt.Sprintf("Message too long (max %d characters)", g.maxLength),
			SanitizedText: truncateRunes(sanitized, g.maxLength),
		}
	}
	return model.Validation{Valid: true, Reason: "Message is valid", SanitizedText: sanitized}
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func crisisKeywords(in []string) []crisisKeyword {
	out := make([]crisisKeyword, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		label := strings.TrimSpace(kw)
		match := strings.ToLower(label)
		if match == "" {
			continue
		}
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		out = append(out, crisisKeyword{label: label, match: match})
	}
	return out
}
