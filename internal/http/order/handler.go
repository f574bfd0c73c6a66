package order

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
)

type Handler struct {
	svc     *order.Service
	reports *report.Service
}

func NewHandler(svc *order.Service, reports *report.Service) *Handler {
	return &Handler{svc: svc, reports: reports}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.createDraft)
	r.Post("/accept", h.acceptCart)
	r.Get("/menu", h.menu)
	r.Get("/customers", h.findCustomers)
	r.Post("/items", h.previewItem)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.updateDraft)
		r.Post("/accept", h.acceptDraft)
		r.Post("/status", h.advance)
		r.Post("/payment", h.recordPayment)
		r.Post("/close", h.close)
		r.Post("/cancel", h.cancel)
		r.Get("/messages", h.messages)
		r.Post("/messages", h.sendStatusUpdate)
		r.Post("/invoice/resend", h.resendInvoice)
		r.Get("/invoice", h.invoice)
	})
}

type itemRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  *int             `json:"quantity,omitempty"`
	WeightLbs *decimal.Decimal `json:"weight_lbs,omitempty"`
}

type cartRequest struct {
	CustomerID uuid.UUID     `json:"customer_id"`
	Items      []itemRequest `json:"items"`
}

type acceptRequest struct {
	CustomerID uuid.UUID     `json:"customer_id"`
	Items      []itemRequest `json:"items"`
	SendEmail  bool          `json:"send_email"`
	SendSMS    bool          `json:"send_sms"`
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

type paymentRequest struct {
	Method      order.PaymentMethod `json:"method"`
	Amount      decimal.Decimal     `json:"amount"`
	SendReceipt bool                `json:"send_receipt"`
}

type closeRequest struct {
	Notes string `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type resendRequest struct {
	SendEmail bool `json:"send_email"`
	SendSMS   bool `json:"send_sms"`
}

type statusUpdateRequest struct {
	Channel order.Channel `json:"channel"`
	Text    string        `json:"text"`
}

func actor(r *http.Request) (order.Actor, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return order.Actor{}, false
	}

	return order.Actor{ID: p.ID, Name: p.Name}, true
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

// decode parses the JSON body and resolves the caller. It writes the error
// response itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) (order.Actor, bool) {
	if v != nil {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return order.Actor{}, false
		}
	}

	a, ok := actor(r)
	if !ok {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return order.Actor{}, false
	}

	return a, true
}

// items prices each requested line from the catalog.
func (h *Handler) items(r *http.Request, reqs []itemRequest) ([]order.Item, error) {
	items := make([]order.Item, 0, len(reqs))

	for _, req := range reqs {
		it, err := h.svc.NewItem(r.Context(), req.ProductID, req.Quantity, req.WeightLbs)
		if err != nil {
			return nil, err
		}

		items = append(items, it)
	}

	return items, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		filter.Status = new(order.Status(s))
	}

	if s := q.Get("customer_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CustomerID = &id
		}
	}

	if s := q.Get("created_by"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.CreatedBy = &id
		}
	}

	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t.AddDate(0, 0, 1))
		}
	}

	orders, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(orders))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var req cartRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	items, err := h.items(r, req.Items)
	if err != nil {
		respond.Error(w, err)
		return
	}

	o, err := h.svc.CreateDraft(r.Context(), order.DraftParams{CustomerID: req.CustomerID, Items: items}, a)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req cartRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	items, err := h.items(r, req.Items)
	if err != nil {
		respond.Error(w, err)
		return
	}

	o, err := h.svc.UpdateDraft(r.Context(), id, order.DraftParams{CustomerID: req.CustomerID, Items: items}, a)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) acceptCart(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, nil)
}

func (h *Handler) acceptDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	h.accept(w, r, &id)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, id *uuid.UUID) {
	var req acceptRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	items, err := h.items(r, req.Items)
	if err != nil {
		respond.Error(w, err)
		return
	}

	o, err := h.svc.Accept(r.Context(), order.AcceptParams{
		OrderID:    id,
		CustomerID: req.CustomerID,
		Items:      items,
		SendEmail:  req.SendEmail,
		SendSMS:    req.SendSMS,
	}, a)
	if err != nil {
		respond.Error(w, err)
		return
	}

	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}

	respond.JSON(w, status, toResponse(o))
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req statusRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	o, err := h.svc.AdvanceStatus(r.Context(), id, req.Status, a)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req paymentRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	o, err := h.svc.RecordPayment(r.Context(), id, order.PaymentParams{
		Method:      req.Method,
		Amount:      req.Amount,
		SendReceipt: req.SendReceipt,
	}, a)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req closeRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	o, err := h.svc.Close(r.Context(), id, a, req.Notes)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req cancelRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	o, err := h.svc.Cancel(r.Context(), id, a, req.Reason)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	msgs, err := h.svc.Messages(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toMessageList(msgs))
}

func (h *Handler) sendStatusUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req statusUpdateRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	msg, err := h.svc.SendStatusUpdate(r.Context(), id, a, req.Channel, req.Text)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) resendInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req resendRequest

	a, ok := decode(w, r, &req)
	if !ok {
		return
	}

	msgs, err := h.svc.ResendInvoice(r.Context(), id, a, req.SendEmail, req.SendSMS)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toMessageList(msgs))
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := h.reports.Invoice(r.Context(), id, w); err != nil {
		w.Header().Del("Content-Type")
		respond.Error(w, err)
	}
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	category := catalog.Category(r.URL.Query().Get("category"))
	if category == "" {
		category = catalog.CategoryHomemade
	}

	products, err := h.svc.Menu(r.Context(), category)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toProductList(products))
}

func (h *Handler) findCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.FindCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCustomerList(customers))
}

func (h *Handler) previewItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	it, err := h.svc.NewItem(r.Context(), req.ProductID, req.Quantity, req.WeightLbs)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, it)
}
