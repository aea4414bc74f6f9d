// Package dispatch decouples click and request-log recording from the
// request path. Events are published to an in-process bus with a bounded
// buffer and written to the store by background subscribers; a publish or
// write failure is logged and counted, never surfaced to the requester.
package dispatch

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"linktrack/internal/shared/events"
)

const (
	// TopicClicks carries ClickEvent payloads.
	TopicClicks = "clicks.recorded"
	// TopicRequests carries RequestLoggedEvent payloads.
	TopicRequests = "requests.logged"
)

// Bus wraps a Watermill in-process pub/sub with a bounded buffer.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus creates an event bus. queueSize bounds the per-subscriber buffer;
// publishing blocks when a subscriber falls that far behind, which is the
// backpressure bound on background recording.
func NewBus(queueSize int, logger watermill.LoggerAdapter) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(queueSize),
			Persistent:          false,
		},
		logger,
	)

	return &Bus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Subscriber returns the Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// PublishClick publishes a click event.
func (b *Bus) PublishClick(event events.ClickEvent) error {
	return b.publish(TopicClicks, "click.recorded", event)
}

// PublishRequestLog publishes a request log event.
func (b *Bus) PublishRequestLog(event events.RequestLoggedEvent) error {
	return b.publish(TopicRequests, "request.logged", event)
}

func (b *Bus) publish(topic, eventName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("event_name", eventName)
	return b.pubsub.Publish(topic, msg)
}

// Close closes the event bus.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
