package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

// Category groups products on the order screen.
type Category string

const (
	CategoryHomemade  Category = "Homemade"
	CategoryGroceries Category = "Groceries"
	CategoryRawMeat   Category = "Raw Meat"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryHomemade, CategoryGroceries, CategoryRawMeat}

func (c Category) Valid() bool {
	switch c {
	case CategoryHomemade, CategoryGroceries, CategoryRawMeat:
		return true
	}

	return false
}

// PricingType decides whether a line is billed per unit or per pound.
type PricingType string

const (
	PricingFixed PricingType = "FIXED"
	PricingPerLb PricingType = "PER_LB"
)

func (p PricingType) Valid() bool {
	return p == PricingFixed || p == PricingPerLb
}

// Product is a sellable catalog entry.
type Product struct {
	ID                uuid.UUID
	Name              string
	Category          Category
	PricingType       PricingType
	Price             decimal.Decimal
	Active            bool
	Description       string
	StockQuantity     *int
	LowStockThreshold *int
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// LowOnStock reports whether stock tracking is on and the quantity fell to the threshold.
func (p *Product) LowOnStock() bool {
	if p.StockQuantity == nil || p.LowStockThreshold == nil {
		return false
	}

	return *p.StockQuantity <= *p.LowStockThreshold
}
