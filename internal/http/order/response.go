package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

type orderResponse struct {
	ID            uuid.UUID             `json:"id"`
	OrderNumber   *string               `json:"order_number,omitempty"`
	InvoiceNumber *string               `json:"invoice_number,omitempty"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	Status        order.Status          `json:"status"`
	PaymentStatus order.PaymentStatus   `json:"payment_status,omitempty"`
	PaymentMethod order.PaymentMethod   `json:"payment_method,omitempty"`
	Items         []order.Item          `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Tax           decimal.Decimal       `json:"tax"`
	Fees          decimal.Decimal       `json:"fees"`
	Total         decimal.Decimal       `json:"total"`
	CreatedBy     uuid.UUID             `json:"created_by"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	Timeline      []order.TimelineEvent `json:"timeline"`
	NextStatuses  []order.Status        `json:"next_statuses"`
	Version       int                   `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type messageResponse struct {
	ID      uuid.UUID           `json:"id"`
	Type    order.MessageType   `json:"type"`
	Channel order.Channel       `json:"channel"`
	Status  order.MessageStatus `json:"status"`
	By      string              `json:"by"`
	At      time.Time           `json:"at"`
	Details string              `json:"details,omitempty"`
}

func toResponse(o *order.Order) orderResponse {
	next := order.NextStatuses(o.Status)
	if next == nil {
		next = []order.Status{}
	}

	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		InvoiceNumber: o.InvoiceNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Items:         o.Items,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Fees:          o.Fees,
		Total:         o.Total,
		CreatedBy:     o.CreatedBy,
		CancelReason:  o.CancelReason,
		Timeline:      o.Timeline,
		NextStatuses:  next,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toResponseList(orders []*order.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toResponse(o)
	}

	return resp
}

func toMessageResponse(m *order.Message) messageResponse {
	return messageResponse{
		ID:      m.ID,
		Type:    m.Type,
		Channel: m.Channel,
		Status:  m.Status,
		By:      m.By,
		At:      m.At,
		Details: m.Details,
	}
}

func toMessageList(msgs []*order.Message) []messageResponse {
	resp := make([]messageResponse, len(msgs))
	for i, m := range msgs {
		resp[i] = toMessageResponse(m)
	}

	return resp
}

type productResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Category    catalog.Category    `json:"category"`
	PricingType catalog.PricingType `json:"pricing_type"`
	Price       decimal.Decimal     `json:"price"`
	Description string              `json:"description,omitempty"`
}

type customerResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email,omitempty"`
	Address string    `json:"address,omitempty"`
}

func toProductList(products []*catalog.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			PricingType: p.PricingType,
			Price:       p.Price,
			Description: p.Description,
		}
	}

	return resp
}

func toCustomerList(customers []*customer.Customer) []customerResponse {
	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = customerResponse{
			ID:      c.ID,
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email,
			Address: c.Address,
		}
	}

	return resp
}
