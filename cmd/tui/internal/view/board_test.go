package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

func sampleOrder() *order.Order {
	return &order.Order{
		ID:            uuid.New(),
		OrderNumber:   new("ORD-1000"),
		Status:        order.StatusAccepted,
		PaymentStatus: order.PaymentAwaiting,
		Items: []order.Item{
			{ProductName: "Baklava", PricingType: catalog.PricingFixed, Quantity: new(2), LineTotal: decimal.NewFromInt(10)},
			{ProductName: "Lamb", PricingType: catalog.PricingPerLb, WeightLbs: new(decimal.RequireFromString("1.5")), LineTotal: decimal.NewFromInt(15)},
		},
		Totals: order.Totals{
			Subtotal: decimal.NewFromInt(25),
			Tax:      decimal.RequireFromString("2.06"),
			Fees:     decimal.NewFromInt(3),
			Total:    decimal.RequireFromString("30.06"),
		},
		Timeline: []order.TimelineEvent{
			{Action: "Order accepted", By: "Sam", At: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), Data: map[string]string{"orderNumber": "ORD-1000"}},
		},
	}
}

func TestDetail(t *testing.T) {
	out := detail(sampleOrder())

	assert.Contains(t, out, "Order ORD-1000  Invoice -")
	assert.Contains(t, out, "Status: Accepted (Awaiting Payment)")
	assert.Contains(t, out, "1.50 lb")
	assert.Contains(t, out, "Total $30.06")
	assert.Contains(t, out, "Order accepted by Sam orderNumber=ORD-1000")
}

func TestBoardModel_Load(t *testing.T) {
	m := NewBoardModel(nil, order.Actor{ID: uuid.New(), Name: "Sam"})

	next, _ := m.Update(boardLoadMsg{orders: []*order.Order{sampleOrder()}})
	board, ok := next.(BoardModel)
	require.True(t, ok)

	assert.False(t, board.loading)
	require.Len(t, board.table.Rows(), 1)
	assert.Equal(t, "ORD-1000", board.table.Rows()[0][0])
	assert.Equal(t, "-", board.table.Rows()[0][1])
	assert.Equal(t, "$30.06", board.table.Rows()[0][5])
	assert.Same(t, board.list[0], board.selectedOrder())
}

func TestBoardModel_ActionError(t *testing.T) {
	m := NewBoardModel(nil, order.Actor{Name: "Sam"})
	m.loading = false

	next, cmd := m.Update(boardActionMsg{err: order.ErrConcurrency})
	board := next.(BoardModel)

	assert.Contains(t, board.status, "Error:")
	assert.Equal(t, boardStateBrowse, board.state)
	assert.NotNil(t, cmd)
}

func TestStatusTemplateOptions(t *testing.T) {
	opts := statusTemplateOptions()

	require.NotEmpty(t, opts)
	assert.Equal(t, "", opts[0].Value)

	for _, o := range opts[1:] {
		assert.Contains(t, o.Value, "status")
	}
}
