package services

import (
	"context"

	"milkpoint/internal/events"
	applog "milkpoint/internal/log"
)

// publish emits an event after a commit. It never fails the caller.
func publish(ctx context.Context, pub events.Publisher, eventType, aggregateID, actorID string, payload any) {
	if pub == nil {
		return
	}
	e, err := events.New(eventType, aggregateID, actorID, payload)
	if err != nil {
		applog.Error(nil, "events.build.fail", err, map[string]any{"event_type": eventType})
		return
	}
	pub.Publish(ctx, e)
}
