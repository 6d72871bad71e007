package core

import "strings"

// Environment is the deployment stage read from ENVIRONMENT.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"dev":         Development,
	"development": Development,
	"local":       Development,
	"stage":       Staging,
	"staging":     Staging,
	"test":        Testing,
	"testing":     Testing,
	"ci":          Testing,
	"prod":        Production,
	"production":  Production,
}

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// AllowsMaintenance reports whether operator shortcuts such as resetting
// admission limits may be used. Only production refuses them.
func (e Environment) AllowsMaintenance() bool {
	return !e.IsProduction()
}

// ParseEnvironment maps ENVIRONMENT values and their common short forms to a
// stage. Anything unrecognised is treated as development.
func ParseEnvironment(v string) Environment {
	if env, ok := environmentAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
		return env
	}
	return Development
}
