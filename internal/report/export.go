package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/orderdesk/internal/money"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
)

// ExportItem links an invoiced order to its written invoice file.
type ExportItem struct {
	Order    *order.Order
	FilePath string
}

// ExportInvoices writes one invoice file per invoiced order matching filter
// into outputDir. Orders without an invoice number are listed with no file.
func (s *Service) ExportInvoices(ctx context.Context, filter order.ListFilter, outputDir string) ([]ExportItem, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	items := make([]ExportItem, 0, len(orders))

	for _, o := range orders {
		item := ExportItem{Order: o}

		if o.InvoiceNumber != nil {
			c, err := s.customers.GetCustomer(ctx, o.CustomerID)
			if err != nil {
				return nil, fmt.Errorf("getting customer for order %s: %w", o.ID, err)
			}

			path := filepath.Join(outputDir, *o.InvoiceNumber+".txt")

			f, err := os.Create(path)
			if err != nil {
				return nil, fmt.Errorf("creating file: %w", err)
			}

			err = WriteInvoice(f, o, c, st)
			if cerr := f.Close(); err == nil {
				err = cerr
			}

			if err != nil {
				return nil, fmt.Errorf("writing invoice %s: %w", *o.InvoiceNumber, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return items, nil
}

// Summary lists exported orders one per line.
func Summary(items []ExportItem) string {
	var sb strings.Builder

	for _, item := range items {
		file := "No Invoice"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s | %s\n",
			item.Order.CreatedAt.Format("2006-01-02"), orDash(item.Order.Number()), item.Order.Status, money.Format(item.Order.Total), file)
	}

	return sb.String()
}
