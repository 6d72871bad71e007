package fallback

var templates = map[Topic][]string{
	TopicAnxiety: {
		"I can sense you're feeling anxious right now. That's completely normal. Try taking a few deep breaths. What's weighing on your mind?",
		"Anxiety can feel overwhelming, but you're not alone in this. What's been causing you the most stress lately?",
		"That sounds really stressful. Many students go through this. What would help you feel more calm right now?",
	},
	TopicLowMood: {
		"It sounds like you're going through a really tough time. Those feelings are valid, and you matter. What's been going on?",
		"I hear that you're struggling right now. That takes courage to share. How long have you been feeling this way?",
		"That sounds incredibly difficult. You don't have to face this alone. What's been the hardest part?",
	},
	TopicAcademic: {
		"Academic pressure can feel overwhelming. Remember, your worth isn't defined by grades. What specific part is stressing you most?",
		"Student life can be really demanding. You're doing your best, and that matters. What's the biggest challenge right now?",
		"Exam stress is so real. Many students feel this way. What would help you feel more prepared or calm?",
	},
	TopicGeneral: {
		"Thanks for sharing that with me. Your feelings are completely valid. What's been on your mind lately?",
		"I can hear this is important to you. What would be most helpful to talk about right now?",
		"It takes courage to reach out. I'm glad you're here. How are you feeling today?",
		"That sounds like a lot to handle. What's been the most challenging part for you?",
		"I'm here to listen and support you. What's weighing on your heart right now?",
		"That sounds tough to deal with. You don't have to face this alone. What's going on?",
	},
}
