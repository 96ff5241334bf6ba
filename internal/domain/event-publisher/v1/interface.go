package eventpublisherv1

import (
	"context"

	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
)

// EventPublisher defines the interface for publishing drained book events to
// the settlement feed.
type EventPublisher interface {
	// PublishEvent publishes one serialized event record.
	PublishEvent(ctx context.Context, event eventsv1.Event) error
}
