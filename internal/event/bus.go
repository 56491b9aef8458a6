package event

import "sync"

// Topics published on the app bus
const (
	// TopicFeedbackGenerated payload: *FeedbackGenerated
	TopicFeedbackGenerated = "feedback.generated"
	// TopicSessionEnded payload: nil
	TopicSessionEnded = "session.ended"
)

// FeedbackGenerated emitted by the feedback store once a report is stored,
// consumed by the interview store to flip the course status to completed
type FeedbackGenerated struct {
	CourseID    string
	InterviewID string
	FeedbackID  string
	Score       int
}

// Handler event callback, invoked synchronously on the publisher's goroutine
type Handler func(payload interface{})

// Bus minimal in-process pub/sub. Stores publish instead of reaching into
// each other's setters, so there is exactly one writer per state slice.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus create an empty Bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe register a handler for a topic
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish deliver payload to every handler of the topic, in subscription
// order. Delivery is synchronous: when Publish returns, all subscribers have
// observed the event.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(payload)
	}
}
