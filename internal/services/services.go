// Package services orchestrates the record collections: transaction
// writes with event publishing, budget evaluation, goal progress,
// recurring rule materialization and reminder windows. Services sit
// between the HTTP handlers and the store so the handlers stay thin.
package services

import (
	"context"
	"log/slog"

	"finbook/internal/amqp"
)

// Publisher emits collection-mutation events. The AMQP client satisfies
// it; a nil Publisher disables publishing.
type Publisher interface {
	PublishMutation(ctx context.Context, msg *amqp.MutationMessage) error
}

// publishMutation fires a mutation event without failing the calling
// write: the store is the source of truth, the event stream is best
// effort.
func publishMutation(ctx context.Context, p Publisher, owner, collection, action string, recordID int64) {
	if p == nil {
		return
	}
	msg := amqp.NewMutationMessage(owner, collection, action, recordID)
	if err := p.PublishMutation(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mutation event",
			"owner", owner,
			"collection", collection,
			"action", action,
			"error", err)
	}
}
