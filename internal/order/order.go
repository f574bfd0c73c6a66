package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft           Status = "Draft"
	StatusAccepted        Status = "Accepted"
	StatusProcessing      Status = "Processing"
	StatusPrepared        Status = "Prepared"
	StatusDelivered       Status = "Delivered"
	StatusAwaitingPayment Status = "Awaiting Payment"
	StatusPaid            Status = "Paid"
	StatusClosed          Status = "Closed"
	StatusCancelled       Status = "Cancelled"
)

var Statuses = []Status{
	StatusDraft, StatusAccepted, StatusProcessing, StatusPrepared, StatusDelivered,
	StatusAwaitingPayment, StatusPaid, StatusClosed, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}

	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentNone     PaymentStatus = ""
	PaymentAwaiting PaymentStatus = "Awaiting Payment"
	PaymentPaid     PaymentStatus = "Paid"
)

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "Card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentCard
}

type MessageType string

const (
	MessageInvoice      MessageType = "Invoice"
	MessageReceipt      MessageType = "Receipt"
	MessageStatusUpdate MessageType = "Status Update"
)

type Channel string

const (
	ChannelEmail Channel = "Email"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

type MessageStatus string

const (
	MessageSent    MessageStatus = "Sent"
	MessageSkipped MessageStatus = "Skipped"
	MessageFailed  MessageStatus = "Failed"
)

// Actor is the staff member performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Item is one order line. Product name, pricing type and unit price are
// copied from the catalog when the line is added and never refreshed.
type Item struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   uuid.UUID           `json:"product_id"`
	ProductName string              `json:"product_name"`
	PricingType catalog.PricingType `json:"pricing_type"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	Quantity    *int                `json:"quantity,omitempty"`
	WeightLbs   *decimal.Decimal    `json:"weight_lbs,omitempty"`
	LineTotal   decimal.Decimal     `json:"line_total"`
}

// Amount is the quantity for FIXED lines and the weight for PER_LB lines.
func (it Item) Amount() decimal.Decimal {
	if it.PricingType == catalog.PricingPerLb {
		if it.WeightLbs == nil {
			return decimal.Zero
		}

		return *it.WeightLbs
	}

	if it.Quantity == nil {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(*it.Quantity))
}

type TimelineEvent struct {
	ID     uuid.UUID         `json:"id"`
	Action string            `json:"action"`
	By     string            `json:"by"`
	At     time.Time         `json:"at"`
	Data   map[string]string `json:"data,omitempty"`
}

type Order struct {
	ID            uuid.UUID
	OrderNumber   *string
	InvoiceNumber *string
	CustomerID    uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Items         []Item
	Totals
	CreatedBy    uuid.UUID
	CancelReason string
	Timeline     []TimelineEvent
	// Version is bumped by every committed save.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) Number() string {
	if o.OrderNumber == nil {
		return ""
	}

	return *o.OrderNumber
}

func (o *Order) Invoice() string {
	if o.InvoiceNumber == nil {
		return ""
	}

	return *o.InvoiceNumber
}

// Clone returns a deep copy that shares no mutable state with o.
func (o *Order) Clone() *Order {
	c := *o

	if o.OrderNumber != nil {
		c.OrderNumber = new(*o.OrderNumber)
	}

	if o.InvoiceNumber != nil {
		c.InvoiceNumber = new(*o.InvoiceNumber)
	}

	c.Items = make([]Item, len(o.Items))
	for i, it := range o.Items {
		if it.Quantity != nil {
			it.Quantity = new(*it.Quantity)
		}

		if it.WeightLbs != nil {
			it.WeightLbs = new(*it.WeightLbs)
		}

		c.Items[i] = it
	}

	c.Timeline = make([]TimelineEvent, len(o.Timeline))
	for i, ev := range o.Timeline {
		if ev.Data != nil {
			data := make(map[string]string, len(ev.Data))
			for k, v := range ev.Data {
				data[k] = v
			}

			ev.Data = data
		}

		c.Timeline[i] = ev
	}

	return &c
}

// Message records one notification attempt. Nothing is actually dispatched.
type Message struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Type    MessageType
	Channel Channel
	Status  MessageStatus
	By      string
	At      time.Time
	Details string
}

// Event is handed to the Publisher after a state change commits.
type Event struct {
	Type        string          `json:"type"`
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number,omitempty"`
	Status      Status          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Actor       string          `json:"actor"`
	At          time.Time       `json:"at"`
}
