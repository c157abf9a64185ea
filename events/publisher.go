package events

import (
	"context"

	"checkout-service/models"
)

// Publisher fans checkout events out to downstream consumers. Publishing is
// best effort; callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event models.CheckoutEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.CheckoutEvent) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
