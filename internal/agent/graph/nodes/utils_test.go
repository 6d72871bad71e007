package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manmitra-core/server/internal/agent/model"
)

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "  That sounds hard.  ", want: "That sounds hard."},
		{name: "echoed prefix", in: "Bestie: I'm here for you", want: "I'm here for you"},
		{name: "prefix after whitespace", in: "\n Bestie:   Tell me more.", want: "Tell me more."},
		{name: "prefix only inside text", in: "You can call me Bestie: your friend", want: "You can call me Bestie: your friend"},
		{name: "empty", in: "   ", want: model.SupportMessage},
		{name: "prefix with nothing after", in: "Bestie:", want: model.SupportMessage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanReply(tc.in))
		})
	}
}

func TestCrisisMetadata(t *testing.T) {
	md := crisisMetadata(model.CrisisResult{
		IsCrisis:        true,
		Severity:        model.SeverityHigh,
		MatchedPatterns: []string{"kill myself"},
	})
	assert.Equal(t, "high", md["severity"])
	assert.Equal(t, []string{"kill myself"}, md["matched_patterns"])
	assert.Equal(t, true, md["requires_immediate_attention"])

	low := crisisMetadata(model.CrisisResult{IsCrisis: true, Severity: model.SeverityLow})
	assert.Equal(t, []string{}, low["matched_patterns"])
	assert.Equal(t, false, low["requires_immediate_attention"])
}
