package events

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-service/models"
	aws_pkg "checkout-service/pkg/aws"
)

// SNSPublisher publishes events as JSON to one topic, with event_type as a
// message attribute.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.CheckoutEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, b, map[string]string{"event_type": event.EventType})
}

func (p *SNSPublisher) Close() error { return nil }
