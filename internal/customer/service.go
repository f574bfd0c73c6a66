package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=customer
type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	UpdateCustomer(ctx context.Context, c *Customer) error
	ListCustomers(ctx context.Context) ([]*Customer, error)
	// SearchCustomers matches query case-insensitively as a substring of name, phone or email.
	SearchCustomers(ctx context.Context, query string) ([]*Customer, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// FindByPhoneOrName returns no customers for a blank query.
func (s *Service) FindByPhoneOrName(ctx context.Context, query string) ([]*Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	return s.repo.SearchCustomers(ctx, query)
}

func (s *Service) Upsert(ctx context.Context, c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)

	if c.Name == "" || c.Phone == "" {
		return fmt.Errorf("%w: name and phone are required", ErrInvalid)
	}

	if c.ID == uuid.Nil {
		return s.repo.CreateCustomer(ctx, c)
	}

	return s.repo.UpdateCustomer(ctx, c)
}
