package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"checkout-service/events"
	"checkout-service/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	topic      string
	message    []byte
	attributes map[string]string
	err        error
}

func (m *mockSNS) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	m.topic = topicArn
	m.message = message
	m.attributes = attributes
	return m.err
}

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.msgs = append(m.msgs, msgs...)
	return m.err
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func sampleEvent() models.CheckoutEvent {
	return models.CheckoutEvent{
		EventType:         "order_created",
		Operation:         models.OperationCreate,
		OrderID:           "O-1",
		StatusCode:        201,
		ContactPreference: models.ContactPreferenceRetainContactInfo,
		Timestamp:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSNSPublisher(t *testing.T) {
	client := &mockSNS{}
	p := events.NewSNSPublisher(client, "arn:aws:sns:us-east-1:000000000000:checkout-events")

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:checkout-events", client.topic)
	assert.Equal(t, "order_created", client.attributes["event_type"])

	var got models.CheckoutEvent
	require.NoError(t, json.Unmarshal(client.message, &got))
	assert.Equal(t, "O-1", got.OrderID)
	assert.Equal(t, models.ContactPreferenceRetainContactInfo, got.ContactPreference)
}

func TestSNSPublisher_Error(t *testing.T) {
	p := events.NewSNSPublisher(&mockSNS{err: errors.New("throttled")}, "arn")
	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
}

func TestKafkaPublisher_KeysByOrderID(t *testing.T) {
	w := &mockWriter{}
	p := events.NewKafkaPublisherWithWriter(w)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "O-1", string(w.msgs[0].Key))
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "order_created", string(w.msgs[0].Headers[0].Value))
	assert.Contains(t, string(w.msgs[0].Value), `"status_code":201`)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := events.NewKafkaPublisherWithWriter(&mockWriter{err: errors.New("leader not available")})
	assert.ErrorContains(t, p.Publish(context.Background(), sampleEvent()), "kafka write")
}

func TestNewKafkaWriter_FlushesQuickly(t *testing.T) {
	w := events.NewKafkaWriter([]string{"broker-1:9092"}, "checkout-events")
	defer w.Close() //nolint:errcheck

	assert.Equal(t, "checkout-events", w.Topic)
	assert.Equal(t, "broker-1:9092", w.Addr.String())
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.LessOrEqual(t, w.BatchTimeout, 50*time.Millisecond)
	assert.Positive(t, w.BatchTimeout)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
