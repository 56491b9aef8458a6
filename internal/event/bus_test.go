package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe("t", func(interface{}) { order = append(order, "first") })
	bus.Subscribe("t", func(interface{}) { order = append(order, "second") })

	bus.Publish("t", nil)
	// synchronous delivery: both handlers ran before Publish returned
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishPayload(t *testing.T) {
	bus := NewBus()
	var got *FeedbackGenerated
	bus.Subscribe(TopicFeedbackGenerated, func(payload interface{}) {
		got = payload.(*FeedbackGenerated)
	})

	bus.Publish(TopicFeedbackGenerated, &FeedbackGenerated{CourseID: "c1", Score: 80})
	assert.Equal(t, "c1", got.CourseID)
	assert.Equal(t, 80, got.Score)
}

func TestPublishUnknownTopicIsNoop(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() { bus.Publish("nobody-listens", nil) })
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe(TopicSessionEnded, func(interface{}) { calls++ })

	bus.Publish(TopicFeedbackGenerated, nil)
	assert.Equal(t, 0, calls)
	bus.Publish(TopicSessionEnded, nil)
	assert.Equal(t, 1, calls)
}
