package safety

import "github.com/manmitra-core/server/internal/agent/model"

const highResponse = `I'm really concerned about what you're telling me. It sounds like you're going through an incredibly difficult time right now.

Your life has value, and there are people who care about you and want to help. Please reach out to a crisis helpline or emergency services immediately:

• KIRAN Mental Health Helpline: 1800-599-0019 (24/7)
• Emergency Services: 112
• Tele-MANAS: 104

You don't have to face this alone. There is help available, and things can get better.`

const mediumResponse = `I can hear that you're really struggling right now, and I'm worried about you. These feelings are valid, and it's important that you get support.

Please consider reaching out to:
• A trusted friend or family member
• A counselor or mental health professional
• KIRAN Helpline: 1800-599-0019

You deserve support and care. Please don't hesitate to reach out for help.`

const lowResponse = `I can sense that you're going through a tough time. It's okay to feel overwhelmed sometimes.

If you'd like to talk to someone who can provide more support, I'd encourage you to consider speaking with a counselor or reaching out to the KIRAN helpline at 1800-599-0019.

You're not alone in this, and there are people who want to help.`

// CrisisResponse returns the static safety message for a severity. It is
// never generated by a model.
func CrisisResponse(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return highResponse
	case model.SeverityMedium:
		return mediumResponse
	default:
		return lowResponse
	}
}
