package safety

import (
	"strings"

	"github.com/manmitra-core/server/internal/agent/model"
)

// SeverityRule tags a keyword set with the severity it implies. Rules are
// evaluated in order and the first one with a hit decides.
type SeverityRule struct {
	Severity model.Severity `yaml:"severity"`
	Keywords []string       `yaml:"keywords"`
}

func DefaultSeverityRules() []SeverityRule {
	return []SeverityRule{
		{
			Severity: model.SeverityHigh,
			Keywords: []string{"suicide", "kill myself", "end it", "don't want to live", "self harm", "hurt myself"},
		},
		{
			Severity: model.SeverityMedium,
			Keywords: []string{"die", "death", "dead", "not worth living", "better off dead", "end my life"},
		},
	}
}

func normalizeRules(rules []SeverityRule) []SeverityRule {
	out := make([]SeverityRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, SeverityRule{Severity: r.Severity, Keywords: normalizeKeywords(r.Keywords)})
	}
	return out
}

// DetectCrisis matches text against the configured keywords. Any hit marks
// the message as a crisis; the severity table then grades it, defaulting to
// low when no tier applies. Matched keywords are reported as configured.
func (g *Gate) DetectCrisis(text string) model.CrisisResult {
	lower := strings.ToLower(text)

	var matched []string
	for _, kw := range g.keywords {
		if strings.Contains(lower, kw.match) {
			matched = append(matched, kw.label)
		}
	}
	if len(matched) == 0 {
		return model.CrisisResult{Severity: model.SeverityNone, MatchedPatterns: []string{}}
	}

	return model.CrisisResult{
		IsCrisis:        true,
		Severity:        g.grade(lower),
		MatchedPatterns: matched,
	}
}

func (g *Gate) grade(lower string) model.Severity {
	for _, rule := range g.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Severity
			}
		}
	}
	return model.SeverityLow
}

// Rules returns a copy of the active severity table.
func (g *Gate) Rules() []SeverityRule {
	out := make([]SeverityRule, len(g.rules))
	for i, r := range g.rules {
		out[i] = SeverityRule{Severity: r.Severity, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
