package customer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("customer not found")
	ErrInvalid  = errors.New("invalid customer")
)

// Customer is a phone-order customer.
type Customer struct {
	ID          uuid.UUID
	Name        string
	Phone       string
	Email       string
	Address     string
	DateOfBirth *time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// HasEmail reports whether invoices can be emailed to the customer.
func (c *Customer) HasEmail() bool {
	return c.Email != ""
}
