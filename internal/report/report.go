// Package report builds sales figures, dashboard stats and printable invoices.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

// Range selects how far back a report looks from now.
type Range string

const (
	RangeDaily   Range = "Daily"
	RangeWeekly  Range = "Weekly"
	RangeMonthly Range = "Monthly"
	RangeYearly  Range = "Yearly"
	RangeAll     Range = "All"
)

func (r Range) Valid() bool {
	switch r {
	case RangeDaily, RangeWeekly, RangeMonthly, RangeYearly, RangeAll:
		return true
	}

	return false
}

// Start returns the earliest creation time included, or nil for RangeAll.
func (r Range) Start(now time.Time) *time.Time {
	var start time.Time

	switch r {
	case RangeDaily:
		y, m, d := now.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case RangeWeekly:
		start = now.AddDate(0, 0, -7)
	case RangeMonthly:
		start = now.AddDate(0, -1, 0)
	case RangeYearly:
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}

	return &start
}

type SalesFilter struct {
	Range      Range
	EmployeeID *uuid.UUID
	// Category limits the category breakdown only.
	Category *catalog.Category
}

type SalesRow struct {
	OrderID     uuid.UUID
	OrderNumber string
	Customer    string
	Total       decimal.Decimal
	Status      order.Status
	Paid        bool
}

type CategoryRow struct {
	Category catalog.Category
	Items    int
	Revenue  decimal.Decimal
}

type PaymentRow struct {
	Method  order.PaymentMethod
	Count   int
	Revenue decimal.Decimal
}

type EmployeeRow struct {
	EmployeeID uuid.UUID
	Name       string
	Orders     int
	Revenue    decimal.Decimal
}

type Sales struct {
	Range      Range
	Rows       []SalesRow
	Revenue    decimal.Decimal
	Categories []CategoryRow
	Payments   []PaymentRow
	Employees  []EmployeeRow
}

type ItemSales struct {
	ProductID uuid.UUID
	Name      string
	// Count is units for FIXED lines and pounds for PER_LB lines.
	Count   decimal.Decimal
	Revenue decimal.Decimal
}

type DayRevenue struct {
	Day     time.Time
	Revenue decimal.Decimal
}

type Dashboard struct {
	TodayOrders   int
	TodayRevenue  decimal.Decimal
	TotalOrders   int
	TotalRevenue  decimal.Decimal
	PendingOrders int
	LowStock      []*catalog.Product
	TopItems      []ItemSales
	LastWeek      []DayRevenue
}

// countsAsRevenue excludes orders that never became sales.
func countsAsRevenue(o *order.Order) bool {
	return o.Status != order.StatusDraft && o.Status != order.StatusCancelled
}

func isPending(o *order.Order) bool {
	switch o.Status {
	case order.StatusDraft, order.StatusAccepted, order.StatusProcessing:
		return true
	}

	return false
}
