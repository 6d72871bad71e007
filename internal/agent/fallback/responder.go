// Package fallback produces supportive templated replies when the model
// cannot or should not be consulted.
package fallback

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

type Topic string

const (
	TopicAnxiety  Topic = "anxiety"
	TopicLowMood  Topic = "low_mood"
	TopicAcademic Topic = "academic_stress"
	TopicGeneral  Topic = "general"
)

type topicRule struct {
	topic    Topic
	keywords []string
}

// topicRules is evaluated in order; the first topic with a keyword hit wins.
var topicRules = []topicRule{
	{topic: TopicAnxiety, keywords: []string{"anxious", "worried", "panic", "overwhelmed", "stressed", "tension", "चिंता", "परेशान", "تناؤ"}},
	{topic: TopicLowMood, keywords: []string{"sad", "depressed", "down", "hopeless", "empty", "udaas", "उदास", "दुखी", "غمگین"}},
	{topic: TopicAcademic, keywords: []string{"study", "exam", "academic", "pressure", "grades", "padhai", "imtihaan", "पढ़ाई", "امتحان"}},
}

// Responder is safe for concurrent use.
type Responder struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Responder drawing from rnd. A nil rnd uses a time-seeded source.
func New(rnd *rand.Rand) *Responder {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Responder{rnd: rnd}
}

// NewSeeded returns a Responder with a deterministic selection sequence.
func NewSeeded(seed uint64) *Responder {
	return New(rand.New(rand.NewPCG(seed, seed)))
}

// Classify returns the first topic whose keywords appear in text.
func Classify(text string) Topic {
	lower := strings.ToLower(text)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.topic
			}
		}
	}
	return TopicGeneral
}

// Respond picks a template uniformly at random from the topic of text.
func (r *Responder) Respond(text string) string {
	pool := templates[Classify(text)]
	r.mu.Lock()
	i := r.rnd.IntN(len(pool))
	r.mu.Unlock()
	return pool[i]
}

// Templates returns a copy of the pool for topic.
func Templates(topic Topic) []string {
	return append([]string(nil), templates[topic]...)
}
