package order_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

func TestCanApply(t *testing.T) {
	allowed := map[order.Op][]order.Status{
		order.OpUpdateDraft: {order.StatusDraft},
		order.OpAccept:      {order.StatusDraft},
		order.OpProcess:     {order.StatusAccepted},
		order.OpPrepare:     {order.StatusProcessing},
		order.OpDeliver:     {order.StatusPrepared},
		order.OpPay:         {order.StatusDelivered, order.StatusAwaitingPayment},
		order.OpCancel:      {order.StatusDraft, order.StatusAccepted, order.StatusProcessing, order.StatusPrepared},
	}

	for op, from := range allowed {
		for _, status := range order.Statuses {
			want := false

			for _, s := range from {
				if s == status {
					want = true
				}
			}

			got := order.CanApply(&order.Order{Status: status}, op)
			assert.Equal(t, want, got, "%s from %s", op, status)
		}
	}
}

func TestCanApply_Close(t *testing.T) {
	tests := []struct {
		name    string
		order   order.Order
		allowed bool
	}{
		{name: "Paid", order: order.Order{Status: order.StatusPaid, PaymentStatus: order.PaymentPaid}, allowed: true},
		{name: "AwaitingPayment", order: order.Order{Status: order.StatusAwaitingPayment, PaymentStatus: order.PaymentAwaiting}},
		{name: "AlreadyClosed", order: order.Order{Status: order.StatusClosed, PaymentStatus: order.PaymentPaid}},
		{name: "Draft", order: order.Order{Status: order.StatusDraft}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, order.CanApply(&tt.order, order.OpClose))
		})
	}
}

func TestCanApply_StatusOnlyOps(t *testing.T) {
	o := &order.Order{Status: order.StatusAccepted}

	assert.False(t, order.CanApply(o, order.OpResendInvoice))
	assert.False(t, order.CanApply(o, order.OpStatusUpdate))
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []order.Status{order.StatusProcessing}, order.NextStatuses(order.StatusAccepted))
	assert.Equal(t, []order.Status{order.StatusPrepared}, order.NextStatuses(order.StatusProcessing))
	assert.Equal(t, []order.Status{order.StatusDelivered}, order.NextStatuses(order.StatusPrepared))
	assert.Empty(t, order.NextStatuses(order.StatusDraft))
	assert.Empty(t, order.NextStatuses(order.StatusAwaitingPayment))
	assert.Empty(t, order.NextStatuses(order.StatusClosed))
}

func TestTransitionError(t *testing.T) {
	var err error = &order.TransitionError{Op: order.OpCancel, From: order.StatusPaid}

	assert.True(t, errors.Is(err, order.ErrInvalidTransition))
	assert.EqualError(t, err, `cannot cancel order in status "Paid"`)

	var te *order.TransitionError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, order.StatusPaid, te.From)
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range order.Statuses {
		assert.Equal(t, s == order.StatusClosed || s == order.StatusCancelled, s.Terminal(), s)
	}
}
