package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/order/memstore"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

type ledger struct {
	svc        *order.Service
	store      *memstore.Store
	customerID uuid.UUID
}

func newLedger(t *testing.T, st settings.Settings) *ledger {
	t.Helper()

	ctrl := gomock.NewController(t)

	l := &ledger{store: memstore.New(), customerID: uuid.New()}

	customers := order.NewMockCustomers(ctrl)
	customers.EXPECT().GetCustomer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
			if id != l.customerID {
				return nil, customer.ErrNotFound
			}

			return &customer.Customer{ID: id, Name: "Jane Doe", Phone: "555-0100"}, nil
		}).AnyTimes()

	sp := order.NewMockSettingsProvider(ctrl)
	sp.EXPECT().GetSettings(gomock.Any()).Return(st, nil).AnyTimes()

	l.svc = order.NewService(l.store, order.NewMockCatalog(ctrl), customers, sp,
		order.WithClock(func() time.Time { return fixedNow }),
	)

	return l
}

func (l *ledger) accepted(t *testing.T) *order.Order {
	t.Helper()

	o, err := l.svc.Accept(context.Background(), order.AcceptParams{
		CustomerID: l.customerID,
		Items:      []order.Item{fixedItem(2, "5.00")},
		SendEmail:  true,
		SendSMS:    true,
	}, staff)
	require.NoError(t, err)

	return o
}

func (l *ledger) advanceTo(t *testing.T, id uuid.UUID, targets ...order.Status) {
	t.Helper()

	for _, target := range targets {
		_, err := l.svc.AdvanceStatus(context.Background(), id, target, staff)
		require.NoError(t, err, "advancing to %s", target)
	}
}

func actions(o *order.Order) []string {
	out := make([]string, len(o.Timeline))
	for i, ev := range o.Timeline {
		out[i] = ev.Action
	}

	return out
}

func TestLedger_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())

	draft, err := l.svc.CreateDraft(ctx, order.DraftParams{
		CustomerID: l.customerID,
		Items:      []order.Item{fixedItem(2, "5.00")},
	}, staff)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(draft.Subtotal))
	assert.True(t, dec("10").Equal(draft.Total))

	accepted, err := l.svc.Accept(ctx, order.AcceptParams{OrderID: &draft.ID, SendEmail: true}, staff)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, accepted.ID)
	assert.Equal(t, "ORD-1000", accepted.Number())
	assert.Equal(t, "INV-1000", accepted.Invoice())
	assert.Equal(t, order.PaymentAwaiting, accepted.PaymentStatus)

	msgs, err := l.svc.Messages(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, order.MessageSent, msgs[0].Status)
	assert.Equal(t, order.MessageSkipped, msgs[1].Status)

	l.advanceTo(t, draft.ID, order.StatusProcessing, order.StatusPrepared, order.StatusDelivered)

	got, err := l.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAwaitingPayment, got.Status)
	assert.Equal(t, []string{
		"Created Draft", "Accepted", "Processing", "Prepared", "Delivered", "Awaiting Payment",
	}, actions(got))

	paid, err := l.svc.RecordPayment(ctx, draft.ID, order.PaymentParams{Method: order.PaymentCOD, Amount: dec("10.00")}, staff)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, paid.Status)
	assert.Equal(t, order.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, order.PaymentCOD, paid.PaymentMethod)

	closed, err := l.svc.Close(ctx, draft.ID, staff, "picked up")
	require.NoError(t, err)
	assert.Equal(t, order.StatusClosed, closed.Status)
	assert.Equal(t, map[string]string{"notes": "picked up"}, closed.Timeline[len(closed.Timeline)-1].Data)

	_, err = l.svc.Cancel(ctx, draft.ID, staff, "changed mind")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	assert.Equal(t, "ORD-1000", closed.Number(), "numbers never change once assigned")
	assert.True(t, closed.Total.Equal(closed.Subtotal.Add(closed.Tax).Add(closed.Fees)))
}

func TestLedger_DeliverAppendsTwoEvents(t *testing.T) {
	l := newLedger(t, plainSettings())
	o := l.accepted(t)
	l.advanceTo(t, o.ID, order.StatusProcessing, order.StatusPrepared)

	before, err := l.svc.Get(context.Background(), o.ID)
	require.NoError(t, err)

	after, err := l.svc.AdvanceStatus(context.Background(), o.ID, order.StatusDelivered, staff)
	require.NoError(t, err)

	assert.Equal(t, order.StatusAwaitingPayment, after.Status)
	require.Len(t, after.Timeline, len(before.Timeline)+2)

	added := after.Timeline[len(before.Timeline):]
	assert.Equal(t, "Delivered", added[0].Action)
	assert.Equal(t, "Awaiting Payment", added[1].Action)
	assert.Equal(t, added[0].At, added[1].At)
	assert.Equal(t, added[0].By, added[1].By)
}

func TestLedger_FailedTransitionLeavesOrderUnchanged(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())
	o := l.accepted(t)

	before, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)

	for _, target := range []order.Status{order.StatusPrepared, order.StatusDelivered, order.StatusPaid, order.StatusAccepted} {
		_, err := l.svc.AdvanceStatus(ctx, o.ID, target, staff)
		assert.ErrorIs(t, err, order.ErrInvalidTransition, target)
	}

	_, err = l.svc.Close(ctx, o.ID, staff, "")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = l.svc.RecordPayment(ctx, o.ID, order.PaymentParams{Method: order.PaymentCard}, staff)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	after, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLedger_PaymentAmountIsNotChecked(t *testing.T) {
	for _, amount := range []string{"0", "999999", "3.333"} {
		t.Run(amount, func(t *testing.T) {
			l := newLedger(t, plainSettings())
			o := l.accepted(t)
			l.advanceTo(t, o.ID, order.StatusProcessing, order.StatusPrepared, order.StatusDelivered)

			paid, err := l.svc.RecordPayment(context.Background(), o.ID, order.PaymentParams{
				Method: order.PaymentCard,
				Amount: dec(amount),
			}, staff)
			require.NoError(t, err)

			assert.Equal(t, order.StatusPaid, paid.Status)
			assert.Equal(t, order.PaymentPaid, paid.PaymentStatus)

			last := paid.Timeline[len(paid.Timeline)-1]
			assert.Equal(t, "Payment Recorded", last.Action)
			assert.Equal(t, dec(amount).StringFixed(2), last.Data["amount"])
		})
	}
}

// seedStatus rewrites a stored order's status as rows written by older
// releases may carry it.
func (l *ledger) seedStatus(t *testing.T, id uuid.UUID, status order.Status) {
	t.Helper()

	ctx := context.Background()

	uow, err := l.store.Begin(ctx, id)
	require.NoError(t, err)

	o, err := uow.GetOrder(ctx, id)
	require.NoError(t, err)

	o.Status = status
	require.NoError(t, uow.SaveOrder(ctx, o))
	require.NoError(t, uow.Commit())
}

func TestLedger_PaymentFromStoredDelivered(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())
	o := l.accepted(t)
	l.advanceTo(t, o.ID, order.StatusProcessing, order.StatusPrepared)
	l.seedStatus(t, o.ID, order.StatusDelivered)

	stored, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusDelivered, stored.Status)

	paid, err := l.svc.RecordPayment(ctx, o.ID, order.PaymentParams{
		Method: order.PaymentCOD,
		Amount: dec("10.00"),
	}, staff)
	require.NoError(t, err)

	assert.Equal(t, order.StatusPaid, paid.Status)
	assert.Equal(t, order.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, order.PaymentCOD, paid.PaymentMethod)
	assert.Equal(t, "Payment Recorded", paid.Timeline[len(paid.Timeline)-1].Action)

	closed, err := l.svc.Close(ctx, o.ID, staff, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusClosed, closed.Status)
}

func TestLedger_PaymentReceipts(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())
	o := l.accepted(t)
	l.advanceTo(t, o.ID, order.StatusProcessing, order.StatusPrepared, order.StatusDelivered)

	_, err := l.svc.RecordPayment(ctx, o.ID, order.PaymentParams{
		Method:      order.PaymentCOD,
		Amount:      dec("10"),
		SendReceipt: true,
	}, staff)
	require.NoError(t, err)

	msgs, err := l.svc.Messages(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	for _, m := range msgs[2:] {
		assert.Equal(t, order.MessageReceipt, m.Type)
		assert.Equal(t, order.MessageSent, m.Status)
		assert.Contains(t, m.Details, "$10.00")
	}
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("AllowedStates", func(t *testing.T) {
		paths := map[order.Status][]order.Status{
			order.StatusAccepted:   nil,
			order.StatusProcessing: {order.StatusProcessing},
			order.StatusPrepared:   {order.StatusProcessing, order.StatusPrepared},
		}

		for status, path := range paths {
			t.Run(string(status), func(t *testing.T) {
				l := newLedger(t, plainSettings())
				o := l.accepted(t)
				l.advanceTo(t, o.ID, path...)

				_, err := l.svc.Cancel(ctx, o.ID, staff, "   ")
				assert.ErrorIs(t, err, order.ErrValidation)

				got, err := l.svc.Cancel(ctx, o.ID, staff, "  customer called  ")
				require.NoError(t, err)
				assert.Equal(t, order.StatusCancelled, got.Status)
				assert.Equal(t, "customer called", got.CancelReason)
				assert.Equal(t, map[string]string{"reason": "customer called"}, got.Timeline[len(got.Timeline)-1].Data)
			})
		}
	})

	t.Run("Draft", func(t *testing.T) {
		l := newLedger(t, plainSettings())

		draft, err := l.svc.CreateDraft(ctx, order.DraftParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "1")}}, staff)
		require.NoError(t, err)

		got, err := l.svc.Cancel(ctx, draft.ID, staff, "duplicate")
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, got.Status)

		_, err = l.svc.Cancel(ctx, draft.ID, staff, "again")
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("RejectedOnceAwaitingPayment", func(t *testing.T) {
		l := newLedger(t, plainSettings())
		o := l.accepted(t)
		l.advanceTo(t, o.ID, order.StatusProcessing, order.StatusPrepared, order.StatusDelivered)

		_, err := l.svc.Cancel(ctx, o.ID, staff, "too late")
		assert.ErrorIs(t, err, order.ErrInvalidTransition)

		_, err = l.svc.RecordPayment(ctx, o.ID, order.PaymentParams{Method: order.PaymentCOD}, staff)
		require.NoError(t, err)

		_, err = l.svc.Cancel(ctx, o.ID, staff, "too late")
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}

func TestLedger_UpdateDraft(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())

	draft, err := l.svc.CreateDraft(ctx, order.DraftParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "4")}}, staff)
	require.NoError(t, err)

	updated, err := l.svc.UpdateDraft(ctx, draft.ID, order.DraftParams{
		CustomerID: l.customerID,
		Items:      []order.Item{fixedItem(3, "4"), weighedItem("1.25", "8")},
	}, staff)
	require.NoError(t, err)
	assert.True(t, dec("22").Equal(updated.Total))
	assert.Equal(t, []string{"Created Draft", "Draft Updated"}, actions(updated))

	_, err = l.svc.Accept(ctx, order.AcceptParams{OrderID: &draft.ID}, staff)
	require.NoError(t, err)

	_, err = l.svc.UpdateDraft(ctx, draft.ID, order.DraftParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "1")}}, staff)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestLedger_TotalsFrozenAfterAccept(t *testing.T) {
	ctx := context.Background()

	st := plainSettings()
	l := newLedger(t, st)
	o := l.accepted(t)

	l.advanceTo(t, o.ID, order.StatusProcessing)

	got, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, o.Totals.Total.Equal(got.Total))
	assert.Equal(t, o.Items, got.Items)
}

func TestLedger_ResendInvoice(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())

	draft, err := l.svc.CreateDraft(ctx, order.DraftParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "1")}}, staff)
	require.NoError(t, err)

	_, err = l.svc.ResendInvoice(ctx, draft.ID, staff, true, true)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = l.svc.Accept(ctx, order.AcceptParams{OrderID: &draft.ID}, staff)
	require.NoError(t, err)

	before, err := l.svc.Get(ctx, draft.ID)
	require.NoError(t, err)

	msgs, err := l.svc.ResendInvoice(ctx, draft.ID, staff, false, true)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, order.MessageSkipped, msgs[0].Status)
	assert.Equal(t, order.MessageSent, msgs[1].Status)
	assert.Contains(t, msgs[1].Details, "INV-1000")

	after, err := l.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "resending must not touch the order")

	all, err := l.svc.Messages(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = l.svc.ResendInvoice(ctx, uuid.New(), staff, true, true)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestLedger_SendStatusUpdate(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())
	o := l.accepted(t)

	type testCase struct {
		name    string
		channel order.Channel
		text    string
		want    string
		wantErr error
	}

	tests := []testCase{
		{name: "FreeText", channel: order.ChannelSMS, text: "Running 10 minutes late", want: "Running 10 minutes late"},
		{name: "Blank", channel: order.ChannelEmail, text: " ", want: "Status update sent."},
		{name: "Template", channel: order.ChannelSMS, text: "statusPrepared", want: "Your order is Prepared."},
		{name: "BadChannel", channel: "Fax", text: "hi", wantErr: order.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := l.svc.SendStatusUpdate(ctx, o.ID, staff, tt.channel, tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, order.MessageStatusUpdate, msg.Type)
			assert.Equal(t, order.MessageSent, msg.Status)
			assert.Equal(t, tt.want, msg.Details)
		})
	}

	got, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusAccepted, got.Status)
	assert.Len(t, got.Timeline, 1)
}

func TestLedger_ConcurrentAcceptsGetUniqueNumbers(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())

	const n = 40

	drafts := make([]*order.Order, n)
	for i := range drafts {
		d, err := l.svc.CreateDraft(ctx, order.DraftParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "1")}}, staff)
		require.NoError(t, err)

		drafts[i] = d
	}

	var (
		mu       sync.Mutex
		orderNos = make(map[string]bool)
		invNos   = make(map[string]bool)
	)

	var g errgroup.Group

	for i := range 2 * n {
		g.Go(func() error {
			params := order.AcceptParams{CustomerID: l.customerID, Items: []order.Item{fixedItem(1, "1")}}
			if i < n {
				params = order.AcceptParams{OrderID: &drafts[i].ID}
			}

			o, err := l.svc.Accept(ctx, params, staff)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			if orderNos[o.Number()] || invNos[o.Invoice()] {
				return errors.New("duplicate number " + o.Number())
			}

			orderNos[o.Number()] = true
			invNos[o.Invoice()] = true

			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Len(t, orderNos, 2*n)
	assert.True(t, orderNos["ORD-1000"])
	assert.True(t, orderNos["ORD-1079"])
}

func TestLedger_ConcurrentAdvanceOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, plainSettings())
	o := l.accepted(t)

	const n = 20

	var (
		g       errgroup.Group
		mu      sync.Mutex
		success int
	)

	for range n {
		g.Go(func() error {
			_, err := l.svc.AdvanceStatus(ctx, o.ID, order.StatusProcessing, staff)
			if errors.Is(err, order.ErrInvalidTransition) {
				return nil
			}

			if err != nil {
				return err
			}

			mu.Lock()
			success++
			mu.Unlock()

			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, 1, success)

	got, err := l.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accepted", "Processing"}, actions(got))
}
