package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
}

type productRequest struct {
	Name              string              `json:"name"`
	Category          catalog.Category    `json:"category"`
	PricingType       catalog.PricingType `json:"pricing_type"`
	Price             decimal.Decimal     `json:"price"`
	Active            bool                `json:"active"`
	Description       string              `json:"description"`
	StockQuantity     *int                `json:"stock_quantity,omitempty"`
	LowStockThreshold *int                `json:"low_stock_threshold,omitempty"`
}

type productResponse struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	Category          catalog.Category    `json:"category"`
	PricingType       catalog.PricingType `json:"pricing_type"`
	Price             decimal.Decimal     `json:"price"`
	Active            bool                `json:"active"`
	Description       string              `json:"description,omitempty"`
	StockQuantity     *int                `json:"stock_quantity,omitempty"`
	LowStockThreshold *int                `json:"low_stock_threshold,omitempty"`
	LowStock          bool                `json:"low_stock"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         *time.Time          `json:"updated_at,omitempty"`
}

func toResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		PricingType:       p.PricingType,
		Price:             p.Price,
		Active:            p.Active,
		Description:       p.Description,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.LowOnStock(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toResponseList(products []*catalog.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toResponse(p)
	}

	return resp
}

func (req productRequest) apply(p *catalog.Product) {
	p.Name = req.Name
	p.Category = req.Category
	p.PricingType = req.PricingType
	p.Price = req.Price
	p.Active = req.Active
	p.Description = req.Description
	p.StockQuantity = req.StockQuantity
	p.LowStockThreshold = req.LowStockThreshold
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ListFilter{Query: q.Get("q")}

	if s := q.Get("category"); s != "" {
		filter.Category = new(catalog.Category(s))
	}

	if s := q.Get("active"); s != "" {
		filter.ActiveOnly, _ = strconv.ParseBool(s)
	}

	products, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(products))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.LowStock(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(products))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := &catalog.Product{}
	req.apply(p)

	if err := h.svc.Upsert(r.Context(), p); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	req.apply(p)

	if err := h.svc.Upsert(r.Context(), p); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}
