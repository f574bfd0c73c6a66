package customer

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
)

type Handler struct {
	svc     *customer.Service
	reports *report.Service
}

func NewHandler(svc *customer.Service, reports *report.Service) *Handler {
	return &Handler{svc: svc, reports: reports}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Get("/{id}/report", h.summary)
}

type customerRequest struct {
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Notes       string     `json:"notes"`
}

type customerResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type summaryRow struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Status      order.Status    `json:"status"`
	Paid        bool            `json:"paid"`
}

type summaryResponse struct {
	Customer customerResponse `json:"customer"`
	Range    report.Range     `json:"range"`
	Orders   int              `json:"orders"`
	Spent    decimal.Decimal  `json:"spent"`
	Rows     []summaryRow     `json:"rows"`
}

func toResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Address:     c.Address,
		DateOfBirth: c.DateOfBirth,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (req customerRequest) apply(c *customer.Customer) {
	c.Name = req.Name
	c.Phone = req.Phone
	c.Email = req.Email
	c.Address = req.Address
	c.DateOfBirth = req.DateOfBirth
	c.Notes = req.Notes
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		customers []*customer.Customer
		err       error
	)

	if q := r.URL.Query().Get("q"); q != "" {
		customers, err = h.svc.FindByPhoneOrName(r.Context(), q)
	} else {
		customers, err = h.svc.List(r.Context())
	}

	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toResponse(c)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := &customer.Customer{}
	req.apply(c)

	if err := h.svc.Upsert(r.Context(), c); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	req.apply(c)

	if err := h.svc.Upsert(r.Context(), c); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rep, err := h.reports.CustomerSummary(r.Context(), id, report.Range(r.URL.Query().Get("range")))
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := summaryResponse{
		Customer: toResponse(rep.Customer),
		Range:    rep.Range,
		Orders:   rep.Orders,
		Spent:    rep.Spent,
		Rows:     make([]summaryRow, len(rep.Rows)),
	}

	for i, row := range rep.Rows {
		resp.Rows[i] = summaryRow{
			OrderID:     row.OrderID,
			OrderNumber: row.OrderNumber,
			Total:       row.Total,
			Status:      row.Status,
			Paid:        row.Paid,
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
