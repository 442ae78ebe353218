package interfaces

import (
	"context"
	"encoding/json"

	"github.com/inboxlab/mailbridge/dto"
)

// ActivityReporter forwards operation events to an external analytics API.
// Report is fire-and-forget: it returns immediately, runs in a bounded
// background task, and swallows transport failures after logging them.
// Invoke is a synchronous passthrough that hides the upstream error detail
// behind a generic failure.
type ActivityReporter interface {
	Report(ctx context.Context, eventName string, payload map[string]interface{})
	Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// EventPublisher mirrors activity events onto a message broker.
type EventPublisher interface {
	PublishActivityEvent(ctx context.Context, event *dto.ActivityEvent) error
	Close() error
}
