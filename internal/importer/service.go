package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=importer

type Catalog interface {
	List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error)
	Upsert(ctx context.Context, p *catalog.Product) error
}

type Customers interface {
	List(ctx context.Context) ([]*customer.Customer, error)
	Upsert(ctx context.Context, c *customer.Customer) error
}

// RowError reports a data row that was skipped.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Result struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

type Service struct {
	catalog   Catalog
	customers Customers
}

func NewService(cat Catalog, customers Customers) *Service {
	return &Service{catalog: cat, customers: customers}
}

// Import reads a CSV of the given kind and upserts every valid row. Products
// match existing entries by name and customers by phone; bad rows are
// collected in the result instead of failing the whole file.
func (s *Service) Import(ctx context.Context, kind Kind, r io.Reader) (*Result, error) {
	records, err := readRecords(kind, r)
	if err != nil {
		return nil, err
	}

	var res *Result

	switch kind {
	case KindProducts:
		res, err = s.importProducts(ctx, records)
	case KindCustomers:
		res, err = s.importCustomers(ctx, records)
	}

	if err != nil {
		return nil, err
	}

	slog.Info("import finished", "kind", kind, "created", res.Created, "updated", res.Updated, "skipped", len(res.Errors))

	return res, nil
}

func (s *Service) importProducts(ctx context.Context, records []record) (*Result, error) {
	existing, err := s.catalog.List(ctx, catalog.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	byName := make(map[string]*catalog.Product, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p
	}

	res := &Result{}

	for _, rec := range records {
		p, err := productFromRecord(rec)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: rec.line, Message: err.Error()})
			continue
		}

		current, found := byName[strings.ToLower(p.Name)]
		if found {
			p.ID = current.ID
			p.CreatedAt = current.CreatedAt
		}

		if err := s.catalog.Upsert(ctx, p); err != nil {
			res.Errors = append(res.Errors, RowError{Line: rec.line, Message: err.Error()})
			continue
		}

		if found {
			res.Updated++
		} else {
			res.Created++
		}

		byName[strings.ToLower(p.Name)] = p
	}

	return res, nil
}

func productFromRecord(rec record) (*catalog.Product, error) {
	price, err := parsePrice(rec.get("price"))
	if err != nil {
		return nil, err
	}

	category, err := parseCategory(rec.get("category"))
	if err != nil {
		return nil, err
	}

	pricing, err := parsePricing(rec.get("pricing"))
	if err != nil {
		return nil, err
	}

	stock, err := parseOptionalInt("stock", rec.get("stock"))
	if err != nil {
		return nil, err
	}

	threshold, err := parseOptionalInt("threshold", rec.get("threshold"))
	if err != nil {
		return nil, err
	}

	active, err := parseActive(rec.get("active"))
	if err != nil {
		return nil, err
	}

	return &catalog.Product{
		Name:              rec.get("name"),
		Category:          category,
		PricingType:       pricing,
		Price:             price,
		Active:            active,
		Description:       rec.get("description"),
		StockQuantity:     stock,
		LowStockThreshold: threshold,
	}, nil
}

func (s *Service) importCustomers(ctx context.Context, records []record) (*Result, error) {
	existing, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}

	byPhone := make(map[string]*customer.Customer, len(existing))
	for _, c := range existing {
		byPhone[digits(c.Phone)] = c
	}

	res := &Result{}

	for _, rec := range records {
		c := &customer.Customer{
			Name:    rec.get("name"),
			Phone:   rec.get("phone"),
			Email:   rec.get("email"),
			Address: rec.get("address"),
			Notes:   rec.get("notes"),
		}

		current, found := byPhone[digits(c.Phone)]
		if found && c.Phone != "" {
			c.ID = current.ID
			c.DateOfBirth = current.DateOfBirth
			c.CreatedAt = current.CreatedAt
		} else {
			found = false
		}

		if err := s.customers.Upsert(ctx, c); err != nil {
			res.Errors = append(res.Errors, RowError{Line: rec.line, Message: err.Error()})
			continue
		}

		if found {
			res.Updated++
		} else {
			res.Created++
		}

		byPhone[digits(c.Phone)] = c
	}

	return res, nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, s)
}
