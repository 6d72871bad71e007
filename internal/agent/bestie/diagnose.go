package bestie

import (
	"strings"
	"unicode"
)

const keyPlaceholder = "YOUR_NEW_API_KEY_HERE"

var keyRecommendations = []string{
	"1. Ensure your API key starts with 'AIza' (Google format)",
	"2. Check that there are no extra spaces or line breaks",
	"3. Verify the key is active in Google AI Studio",
	"4. Restart the service after updating the .env file",
	"5. Check if billing is enabled for your Google Cloud project",
}

type KeyCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// KeyDiagnosis describes the configured model API key without revealing it.
type KeyDiagnosis struct {
	Configured       bool     `json:"configured"`
	FirstChars       string   `json:"first_10_chars"`
	Length           int      `json:"length"`
	Validation       KeyCheck `json:"validation"`
	ModelInitialized bool     `json:"model_initialized"`
	Recommendations  []string `json:"recommendations"`
}

// CheckKeyFormat applies the static format checks for a Google API key.
func CheckKeyFormat(key string) KeyCheck {
	switch {
	case strings.TrimSpace(key) == "":
		return KeyCheck{Reason: "API key is empty"}
	case key == keyPlaceholder:
		return KeyCheck{Reason: "API key is still placeholder"}
	case !strings.HasPrefix(key, "AIza"):
		return KeyCheck{Reason: "API key doesn't start with 'AIza' (Google format)"}
	case len(key) < 20:
		return KeyCheck{Reason: "API key is too short"}
	case strings.IndexFunc(key, unicode.IsSpace) >= 0:
		return KeyCheck{Reason: "API key contains whitespace"}
	}
	return KeyCheck{Valid: true, Reason: "Format appears valid"}
}

func (s *Service) DiagnoseAPIKey() KeyDiagnosis {
	first := "N/A"
	if len(s.apiKey) > 10 {
		first = s.apiKey[:10] + "..."
	}
	return KeyDiagnosis{
		Configured:       s.apiKey != "",
		FirstChars:       first,
		Length:           len(s.apiKey),
		Validation:       CheckKeyFormat(s.apiKey),
		ModelInitialized: s.gw.Status().APIKeyConfigured,
		Recommendations:  append([]string(nil), keyRecommendations...),
	}
}
