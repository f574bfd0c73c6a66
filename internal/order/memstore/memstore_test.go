package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/order/memstore"
)

func newOrder() *order.Order {
	return &order.Order{
		ID:        uuid.New(),
		Status:    order.StatusDraft,
		CreatedAt: time.Now(),
		Timeline:  []order.TimelineEvent{{ID: uuid.New(), Action: "Created Draft", Data: map[string]string{"k": "v"}}},
	}
}

func save(t *testing.T, s *memstore.Store, o *order.Order) {
	t.Helper()

	uow, err := s.Begin(context.Background(), o.ID)
	require.NoError(t, err)
	require.NoError(t, uow.SaveOrder(context.Background(), o))
	require.NoError(t, uow.Commit())
}

func TestStore_Counters(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	for _, want := range []string{"ORD-1000", "ORD-1001", "ORD-1002"} {
		got, err := s.NextOrderNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := s.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-1000", got, "counters are independent")
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	o := newOrder()

	uow, err := s.Begin(ctx, o.ID)
	require.NoError(t, err)
	require.NoError(t, uow.SaveOrder(ctx, o))
	require.NoError(t, uow.AppendMessage(ctx, &order.Message{OrderID: o.ID, Type: order.MessageInvoice}))

	seen, err := uow.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, seen.Version)

	require.NoError(t, uow.Rollback())

	_, err = s.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)

	msgs, err := s.ListMessages(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_StaleVersionIsRejected(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	o := newOrder()
	save(t, s, o)

	stale, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)

	o.Status = order.StatusCancelled
	save(t, s, o)

	uow, err := s.Begin(ctx, o.ID)
	require.NoError(t, err)
	defer uow.Rollback()

	stale.Status = order.StatusAccepted
	assert.ErrorIs(t, uow.SaveOrder(ctx, stale), order.ErrConcurrency)

	dup := newOrder()
	dup.ID = o.ID
	assert.ErrorIs(t, uow.SaveOrder(ctx, dup), order.ErrConcurrency)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	o := newOrder()
	save(t, s, o)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)

	got.Timeline[0].Data["k"] = "changed"
	got.Timeline = append(got.Timeline, order.TimelineEvent{Action: "Bogus"})

	again, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, again.Timeline, 1)
	assert.Equal(t, "v", again.Timeline[0].Data["k"])
}

func TestStore_BeginWaitsForOpenUnit(t *testing.T) {
	s := memstore.New()
	id := uuid.New()

	first, err := s.Begin(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.Begin(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Rollback())

	second, err := s.Begin(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, second.Rollback())
}

func TestStore_LoadOrdersFilters(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	draft := newOrder()
	save(t, s, draft)

	accepted := newOrder()
	accepted.Status = order.StatusAccepted
	accepted.CreatedAt = draft.CreatedAt.Add(time.Hour)
	save(t, s, accepted)

	all, err := s.LoadOrders(ctx, order.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, accepted.ID, all[0].ID, "newest first")

	status := order.StatusDraft
	drafts, err := s.LoadOrders(ctx, order.ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)

	since := draft.CreatedAt.Add(time.Minute)
	recent, err := s.LoadOrders(ctx, order.ListFilter{StartDate: &since})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, accepted.ID, recent[0].ID)
}
