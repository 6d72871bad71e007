package safety

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/manmitra-core/server/internal/agent/model"
)

type rulesFile struct {
	Rules []SeverityRule `yaml:"rules"`
}

// LoadRules reads an ordered severity table from a YAML file:
//
//	rules:
//	  - severity: high
//	    keywords: [suicide, kill myself]
//	  - severity: medium
//	    keywords: [dead]
func LoadRules(path string) ([]SeverityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read safety rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) ([]SeverityRule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("parse safety rules: no rules defined")
	}
	for i, r := range f.Rules {
		switch r.Severity {
		case model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
		default:
			return nil, fmt.Errorf("parse safety rules: rule %d has unknown severity %q", i, r.Severity)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("parse safety rules: rule %d has no keywords", i)
		}
	}
	return f.Rules, nil
}
