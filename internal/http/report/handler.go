package report

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the sales and export reports.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/sales", h.sales)
	r.Post("/export", h.metadata)
	r.Post("/export/download", h.download)
}

type salesRow struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Customer    string          `json:"customer"`
	Total       decimal.Decimal `json:"total"`
	Status      order.Status    `json:"status"`
	Paid        bool            `json:"paid"`
}

type categoryRow struct {
	Category catalog.Category `json:"category"`
	Items    int              `json:"items"`
	Revenue  decimal.Decimal  `json:"revenue"`
}

type paymentRow struct {
	Method  order.PaymentMethod `json:"method"`
	Count   int                 `json:"count"`
	Revenue decimal.Decimal     `json:"revenue"`
}

type employeeRow struct {
	EmployeeID uuid.UUID       `json:"employee_id"`
	Name       string          `json:"name"`
	Orders     int             `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type salesResponse struct {
	Range      report.Range    `json:"range"`
	Revenue    decimal.Decimal `json:"revenue"`
	Rows       []salesRow      `json:"rows"`
	Categories []categoryRow   `json:"categories"`
	Payments   []paymentRow    `json:"payments"`
	Employees  []employeeRow   `json:"employees"`
}

type itemSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Count     decimal.Decimal `json:"count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type dayRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

type lowStockProduct struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	StockQuantity     *int      `json:"stock_quantity"`
	LowStockThreshold *int      `json:"low_stock_threshold"`
}

type dashboardResponse struct {
	TodayOrders   int               `json:"today_orders"`
	TodayRevenue  decimal.Decimal   `json:"today_revenue"`
	TotalOrders   int               `json:"total_orders"`
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	PendingOrders int               `json:"pending_orders"`
	LowStock      []lowStockProduct `json:"low_stock"`
	TopItems      []itemSales       `json:"top_items"`
	LastWeek      []dayRevenue      `json:"last_week"`
}

type exportRequest struct {
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
	Status    *order.Status `json:"status,omitempty"`
}

type exportedOrder struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   *string         `json:"order_number,omitempty"`
	InvoiceNumber *string         `json:"invoice_number,omitempty"`
	Status        order.Status    `json:"status"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	File          string          `json:"file,omitempty"`
}

type exportMetadataResponse struct {
	Orders  []exportedOrder `json:"orders"`
	Summary string          `json:"summary"`
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := dashboardResponse{
		TodayOrders:   d.TodayOrders,
		TodayRevenue:  d.TodayRevenue,
		TotalOrders:   d.TotalOrders,
		TotalRevenue:  d.TotalRevenue,
		PendingOrders: d.PendingOrders,
		LowStock:      make([]lowStockProduct, 0, len(d.LowStock)),
		TopItems:      make([]itemSales, 0, len(d.TopItems)),
		LastWeek:      make([]dayRevenue, 0, len(d.LastWeek)),
	}

	for _, p := range d.LowStock {
		resp.LowStock = append(resp.LowStock, lowStockProduct{
			ID:                p.ID,
			Name:              p.Name,
			StockQuantity:     p.StockQuantity,
			LowStockThreshold: p.LowStockThreshold,
		})
	}

	for _, it := range d.TopItems {
		resp.TopItems = append(resp.TopItems, itemSales(it))
	}

	for _, day := range d.LastWeek {
		resp.LastWeek = append(resp.LastWeek, dayRevenue{Day: day.Day.Format(time.DateOnly), Revenue: day.Revenue})
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.SalesFilter{Range: report.Range(q.Get("range"))}

	if s := q.Get("employee_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid employee_id", http.StatusBadRequest)
			return
		}

		filter.EmployeeID = &id
	}

	if s := q.Get("category"); s != "" {
		filter.Category = new(catalog.Category(s))
	}

	rep, err := h.svc.Sales(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := salesResponse{
		Range:      rep.Range,
		Revenue:    rep.Revenue,
		Rows:       make([]salesRow, 0, len(rep.Rows)),
		Categories: make([]categoryRow, 0, len(rep.Categories)),
		Payments:   make([]paymentRow, 0, len(rep.Payments)),
		Employees:  make([]employeeRow, 0, len(rep.Employees)),
	}

	for _, row := range rep.Rows {
		resp.Rows = append(resp.Rows, salesRow(row))
	}

	for _, row := range rep.Categories {
		resp.Categories = append(resp.Categories, categoryRow(row))
	}

	for _, row := range rep.Payments {
		resp.Payments = append(resp.Payments, paymentRow(row))
	}

	for _, row := range rep.Employees {
		resp.Employees = append(resp.Employees, employeeRow(row))
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (req exportRequest) filter() order.ListFilter {
	return order.ListFilter{
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "orderdesk-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	items, err := h.svc.ExportInvoices(r.Context(), req.filter(), tmpDir)
	if err != nil {
		respond.Error(w, err)
		return
	}

	orders := make([]exportedOrder, 0, len(items))
	for _, item := range items {
		o := exportedOrder{
			ID:            item.Order.ID,
			OrderNumber:   item.Order.OrderNumber,
			InvoiceNumber: item.Order.InvoiceNumber,
			Status:        item.Order.Status,
			Total:         item.Order.Total,
			CreatedAt:     item.Order.CreatedAt,
		}

		if item.FilePath != "" {
			o.File = filepath.Base(item.FilePath)
		}

		orders = append(orders, o)
	}

	respond.JSON(w, http.StatusOK, exportMetadataResponse{
		Orders:  orders,
		Summary: report.Summary(items),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "orderdesk-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	items, err := h.svc.ExportInvoices(r.Context(), req.filter(), tmpDir)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "summary.txt"), []byte(report.Summary(items)), 0o644); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"invoices_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
