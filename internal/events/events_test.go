package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/orderdesk/internal/events"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *recordingChannel) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	ch := &recordingChannel{}
	p := events.NewPublisher(ch, "orders")

	ev := order.Event{
		Type:        string(order.OpPay),
		OrderID:     uuid.New(),
		OrderNumber: "ORD-1000",
		Status:      order.StatusPaid,
		Total:       decimal.RequireFromString("10.00"),
		Actor:       "Maria",
		At:          time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), ev))

	assert.Equal(t, "orders", ch.exchange)
	assert.Equal(t, "order.record_payment", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, ev.At, ch.msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "ORD-1000", decoded["order_number"])
	assert.Equal(t, "Paid", decoded["status"])
	assert.Equal(t, "10", decoded["total"])
}

func TestPublisher_PublishError(t *testing.T) {
	p := events.NewPublisher(&recordingChannel{err: errors.New("channel closed")}, "orders")

	err := p.Publish(context.Background(), order.Event{Type: string(order.OpAccept)})
	assert.ErrorContains(t, err, "channel closed")
}

func TestDiscard(t *testing.T) {
	var pub order.Publisher = events.Discard{}
	assert.NoError(t, pub.Publish(context.Background(), order.Event{}))
}
