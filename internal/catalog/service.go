package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error)
}

var ErrInvalid = errors.New("invalid product")

type ListFilter struct {
	Category   *Category
	ActiveOnly bool
	Query      string
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) ListActiveByCategory(ctx context.Context, category Category) ([]*Product, error) {
	return s.repo.ListProducts(ctx, ListFilter{Category: &category, ActiveOnly: true})
}

// LowStock returns active products whose stock is at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]*Product, error) {
	products, err := s.repo.ListProducts(ctx, ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	var low []*Product

	for _, p := range products {
		if p.LowOnStock() {
			low = append(low, p)
		}
	}

	return low, nil
}

// Upsert creates the product when it has no id, otherwise updates it.
func (s *Service) Upsert(ctx context.Context, p *Product) error {
	if err := validate(p); err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		return s.repo.CreateProduct(ctx, p)
	}

	return s.repo.UpdateProduct(ctx, p)
}

func validate(p *Product) error {
	p.Name = strings.TrimSpace(p.Name)

	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, p.Category)
	case !p.PricingType.Valid():
		return fmt.Errorf("%w: unknown pricing type %q", ErrInvalid, p.PricingType)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", ErrInvalid)
	case p.StockQuantity != nil && *p.StockQuantity < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalid)
	}

	return nil
}
