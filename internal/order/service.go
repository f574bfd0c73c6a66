package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/money"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=order
type Repository interface {
	// Begin opens a unit of work holding the store-side lock for orderID.
	Begin(ctx context.Context, orderID uuid.UUID) (UnitOfWork, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	LoadOrders(ctx context.Context, filter ListFilter) ([]*Order, error)
	ListMessages(ctx context.Context, orderID uuid.UUID) ([]*Message, error)
	// NextOrderNumber and NextInvoiceNumber never return the same value twice,
	// even when the unit of work that asked for it rolls back.
	NextOrderNumber(ctx context.Context) (string, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

type UnitOfWork interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	// SaveOrder inserts orders with Version 0 and otherwise updates only if the
	// stored version still matches, returning ErrConcurrency when it does not.
	// On success the order's Version is incremented.
	SaveOrder(ctx context.Context, o *Order) error
	AppendMessage(ctx context.Context, m *Message) error
	Commit() error
	Rollback() error
}

type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	ListActiveByCategory(ctx context.Context, category catalog.Category) ([]*catalog.Product, error)
}

type Customers interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	FindByPhoneOrName(ctx context.Context, query string) ([]*customer.Customer, error)
}

type SettingsProvider interface {
	GetSettings(ctx context.Context) (settings.Settings, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type ListFilter struct {
	Status     *Status
	CustomerID *uuid.UUID
	CreatedBy  *uuid.UUID
	StartDate  *time.Time
	// EndDate is exclusive.
	EndDate *time.Time
}

type DraftParams struct {
	CustomerID uuid.UUID
	Items      []Item
}

type AcceptParams struct {
	// OrderID names an existing draft. Nil accepts a new cart directly.
	// When accepting a draft, a nil CustomerID or empty Items keep the draft's.
	OrderID    *uuid.UUID
	CustomerID uuid.UUID
	Items      []Item
	SendEmail  bool
	SendSMS    bool
}

type PaymentParams struct {
	Method PaymentMethod
	// Amount is recorded as given; it is not compared with the order total.
	Amount      decimal.Decimal
	SendReceipt bool
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver registers fn to be told the outcome of every operation.
func WithObserver(fn func(op string, err error)) Option {
	return func(s *Service) { s.observe = fn }
}

type Service struct {
	repo      Repository
	catalog   Catalog
	customers Customers
	settings  SettingsProvider
	publisher Publisher
	observe   func(op string, err error)
	now       func() time.Time
	locks     *keyedMutex
}

func NewService(repo Repository, cat Catalog, customers Customers, sp SettingsProvider, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		catalog:   cat,
		customers: customers,
		settings:  sp,
		now:       time.Now,
		locks:     newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	return o, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.LoadOrders(ctx, filter)
}

func (s *Service) Messages(ctx context.Context, orderID uuid.UUID) ([]*Message, error) {
	return s.repo.ListMessages(ctx, orderID)
}

// Menu lists the active products of a category for building a cart.
func (s *Service) Menu(ctx context.Context, category catalog.Category) ([]*catalog.Product, error) {
	return s.catalog.ListActiveByCategory(ctx, category)
}

func (s *Service) FindCustomers(ctx context.Context, query string) ([]*customer.Customer, error) {
	return s.customers.FindByPhoneOrName(ctx, query)
}

// NewItem builds an order line from the current catalog entry. Exactly one of
// quantity (FIXED) or weight (PER_LB) must be given.
func (s *Service) NewItem(ctx context.Context, productID uuid.UUID, quantity *int, weight *decimal.Decimal) (Item, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return Item{}, lookupErr("product", productID, err)
	}

	if !p.Active {
		return Item{}, validationErr("product %q is not active", p.Name)
	}

	it := Item{
		ID:          uuid.New(),
		ProductID:   p.ID,
		ProductName: p.Name,
		PricingType: p.PricingType,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		WeightLbs:   weight,
	}

	if err := validateItem(it); err != nil {
		return Item{}, err
	}

	it.LineTotal = it.Amount().Mul(it.UnitPrice)

	return it, nil
}

func (s *Service) CreateDraft(ctx context.Context, params DraftParams, actor Actor) (o *Order, err error) {
	defer s.track(OpCreateDraft, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	items, totals, err := s.prepareCart(ctx, st, params.CustomerID, params.Items)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	o = &Order{
		ID:         uuid.New(),
		CustomerID: params.CustomerID,
		Status:     StatusDraft,
		Items:      items,
		Totals:     totals,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.appendEvent(now, actor, "Created Draft", nil)

	if err := s.commitNew(ctx, o, nil); err != nil {
		return nil, err
	}

	s.publish(ctx, OpCreateDraft, o, actor, now)

	return o, nil
}

// UpdateDraft replaces the customer and cart of a draft and recomputes totals.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, params DraftParams, actor Actor) (o *Order, err error) {
	defer s.track(OpUpdateDraft, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, OpUpdateDraft, actor, func(o *Order, now time.Time) ([]*Message, error) {
		items, totals, err := s.prepareCart(ctx, st, params.CustomerID, params.Items)
		if err != nil {
			return nil, err
		}

		o.CustomerID = params.CustomerID
		o.Items, o.Totals = items, totals
		o.appendEvent(now, actor, "Draft Updated", nil)

		return nil, nil
	})
}

// Accept numbers an order and records its invoice messages. It either
// promotes an existing draft or creates the order directly as Accepted.
func (s *Service) Accept(ctx context.Context, params AcceptParams, actor Actor) (o *Order, err error) {
	defer s.track(OpAccept, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if params.OrderID != nil {
		return s.mutate(ctx, *params.OrderID, OpAccept, actor, func(o *Order, now time.Time) ([]*Message, error) {
			if params.CustomerID == uuid.Nil {
				params.CustomerID = o.CustomerID
			}

			if len(params.Items) == 0 {
				params.Items = o.Items
			}

			return s.applyAccept(ctx, o, st, params, actor, now)
		})
	}

	now := s.clock()
	o = &Order{
		ID:         uuid.New(),
		CustomerID: params.CustomerID,
		Status:     StatusDraft,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
	}

	msgs, err := s.applyAccept(ctx, o, st, params, actor, now)
	if err != nil {
		return nil, err
	}

	o.Status = transitions[OpAccept].to
	o.UpdatedAt = now

	if err := s.commitNew(ctx, o, msgs); err != nil {
		return nil, err
	}

	s.publish(ctx, OpAccept, o, actor, now)

	return o, nil
}

func (s *Service) applyAccept(ctx context.Context, o *Order, st settings.Settings, params AcceptParams, actor Actor, now time.Time) ([]*Message, error) {
	items, totals, err := s.prepareCart(ctx, st, params.CustomerID, params.Items)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.repo.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("drawing order number: %w", err)
	}

	invoiceNumber, err := s.repo.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("drawing invoice number: %w", err)
	}

	o.CustomerID = params.CustomerID
	o.Items, o.Totals = items, totals
	o.OrderNumber = &orderNumber
	o.InvoiceNumber = &invoiceNumber
	o.PaymentStatus = PaymentAwaiting
	o.appendEvent(now, actor, "Accepted", map[string]string{
		"email": string(sendStatus(params.SendEmail)),
		"sms":   string(sendStatus(params.SendSMS)),
	})

	return invoiceMessages(o, st, params.SendEmail, params.SendSMS, actor, now), nil
}

// AdvanceStatus moves an order one step along Processing, Prepared and
// Delivered. Delivering leaves the order Awaiting Payment with both steps
// on the timeline.
func (s *Service) AdvanceStatus(ctx context.Context, id uuid.UUID, target Status, actor Actor) (o *Order, err error) {
	op, ok := advanceOps[target]
	if !ok {
		op = OpAdvance
	}

	defer s.track(op, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	if !ok {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		return nil, &TransitionError{Op: op, From: current.Status, To: target}
	}

	return s.mutate(ctx, id, op, actor, func(o *Order, now time.Time) ([]*Message, error) {
		if op == OpDeliver {
			o.appendEvent(now, actor, string(StatusDelivered), nil)
			o.appendEvent(now, actor, string(StatusAwaitingPayment), nil)

			return nil, nil
		}

		o.appendEvent(now, actor, string(target), nil)

		return nil, nil
	})
}

func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, params PaymentParams, actor Actor) (o *Order, err error) {
	defer s.track(OpPay, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	if !params.Method.Valid() {
		return nil, validationErr("unknown payment method %q", params.Method)
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, OpPay, actor, func(o *Order, now time.Time) ([]*Message, error) {
		o.PaymentStatus = PaymentPaid
		o.PaymentMethod = params.Method
		o.appendEvent(now, actor, "Payment Recorded", map[string]string{
			"method": string(params.Method),
			"amount": money.Plain(params.Amount),
		})

		if !params.SendReceipt {
			return nil, nil
		}

		return receiptMessages(o, st, params, actor, now), nil
	})
}

func (s *Service) Close(ctx context.Context, id uuid.UUID, actor Actor, notes string) (o *Order, err error) {
	defer s.track(OpClose, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, OpClose, actor, func(o *Order, now time.Time) ([]*Message, error) {
		var data map[string]string
		if notes = strings.TrimSpace(notes); notes != "" {
			data = map[string]string{"notes": notes}
		}

		o.appendEvent(now, actor, "Closed", data)

		return nil, nil
	})
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor, reason string) (o *Order, err error) {
	defer s.track(OpCancel, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationErr("cancel reason is required")
	}

	return s.mutate(ctx, id, OpCancel, actor, func(o *Order, now time.Time) ([]*Message, error) {
		o.CancelReason = reason
		o.appendEvent(now, actor, "Cancelled", map[string]string{"reason": reason})

		return nil, nil
	})
}

// ResendInvoice logs a new pair of invoice messages for an accepted order.
func (s *Service) ResendInvoice(ctx context.Context, id uuid.UUID, actor Actor, sendEmail, sendSMS bool) (msgs []*Message, err error) {
	defer s.track(OpResendInvoice, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	_, err = s.mutate(ctx, id, OpResendInvoice, actor, func(o *Order, now time.Time) ([]*Message, error) {
		if o.InvoiceNumber == nil {
			return nil, &TransitionError{Op: OpResendInvoice, From: o.Status}
		}

		msgs = invoiceMessages(o, st, sendEmail, sendSMS, actor, now)

		return msgs, nil
	})
	if err != nil {
		return nil, err
	}

	return msgs, nil
}

// SendStatusUpdate logs a status message. text may be free text or the key
// of a status template such as "statusPrepared".
func (s *Service) SendStatusUpdate(ctx context.Context, id uuid.UUID, actor Actor, channel Channel, text string) (msg *Message, err error) {
	defer s.track(OpStatusUpdate, &err)

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	if !channel.Valid() {
		return nil, validationErr("unknown channel %q", channel)
	}

	st, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	_, err = s.mutate(ctx, id, OpStatusUpdate, actor, func(o *Order, now time.Time) ([]*Message, error) {
		msg = newMessage(o, MessageStatusUpdate, channel, true, statusText(o, st, text), actor, now)
		return []*Message{msg}, nil
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// mutate runs fn against the stored order under the per-order lock and the
// store's unit of work. Status-changing operations are checked against the
// transition table and saved; the others only append messages. Nothing is
// persisted unless every step succeeds.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, op Op, actor Actor, fn func(o *Order, now time.Time) ([]*Message, error)) (*Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	uow, err := s.repo.Begin(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("beginning %s: %w", op, err)
	}
	defer uow.Rollback()

	o, err := uow.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	t, changesStatus := transitions[op]
	if changesStatus {
		if err := checkTransition(o, op); err != nil {
			return nil, err
		}
	}

	now := s.clock()

	msgs, err := fn(o, now)
	if err != nil {
		return nil, err
	}

	if changesStatus {
		o.Status = t.to
		o.UpdatedAt = now

		if err := uow.SaveOrder(ctx, o); err != nil {
			return nil, fmt.Errorf("saving order: %w", err)
		}
	}

	for _, m := range msgs {
		if err := uow.AppendMessage(ctx, m); err != nil {
			return nil, fmt.Errorf("appending message: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", op, err)
	}

	if changesStatus {
		s.publish(ctx, op, o, actor, now)
	}

	return o, nil
}

func (s *Service) commitNew(ctx context.Context, o *Order, msgs []*Message) error {
	unlock := s.locks.Lock(o.ID)
	defer unlock()

	uow, err := s.repo.Begin(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("beginning order: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SaveOrder(ctx, o); err != nil {
		return fmt.Errorf("saving order: %w", err)
	}

	for _, m := range msgs {
		if err := uow.AppendMessage(ctx, m); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("committing order: %w", err)
	}

	return nil
}

func (s *Service) prepareCart(ctx context.Context, st settings.Settings, customerID uuid.UUID, items []Item) ([]Item, Totals, error) {
	if customerID == uuid.Nil {
		return nil, Totals{}, validationErr("customer is required")
	}

	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return nil, Totals{}, lookupErr("customer", customerID, err)
	}

	normalized, err := NormalizeItems(items)
	if err != nil {
		return nil, Totals{}, err
	}

	return normalized, ComputeTotals(normalized, st), nil
}

func (s *Service) snapshot(ctx context.Context) (settings.Settings, error) {
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("getting settings: %w", err)
	}

	return st, nil
}

func (s *Service) publish(ctx context.Context, op Op, o *Order, actor Actor, now time.Time) {
	if s.publisher == nil {
		return
	}

	ev := Event{
		Type:        string(op),
		OrderID:     o.ID,
		OrderNumber: o.Number(),
		Status:      o.Status,
		Total:       o.Total,
		Actor:       actor.Name,
		At:          now,
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.Error("failed to publish order event", "order_id", o.ID, "event", ev.Type, "error", err)
	}
}

func (s *Service) track(op Op, err *error) {
	if s.observe != nil {
		s.observe(string(op), *err)
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (o *Order) appendEvent(at time.Time, actor Actor, action string, data map[string]string) {
	o.Timeline = append(o.Timeline, TimelineEvent{
		ID:     uuid.New(),
		Action: action,
		By:     actor.Name,
		At:     at,
		Data:   data,
	})
}

func validateActor(actor Actor) error {
	if strings.TrimSpace(actor.Name) == "" {
		return validationErr("actor is required")
	}

	return nil
}

func lookupErr(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, customer.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}

	return fmt.Errorf("getting %s %s: %w", kind, id, err)
}
