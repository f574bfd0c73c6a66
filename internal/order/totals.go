package order

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Fees     decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives order totals from item lines and a settings snapshot.
// Line totals are recomputed rather than read from the items. Tax is rounded
// to cents; the fee is a flat amount.
func ComputeTotals(items []Item, s settings.Settings) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Amount().Mul(it.UnitPrice))
	}

	tax := decimal.Zero
	if s.TaxEnabled {
		tax = subtotal.Mul(s.TaxPercent).Div(hundred).Round(2)
	}

	fees := decimal.Zero
	if s.FeesEnabled {
		fees = s.FeeValue
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Fees:     fees,
		Total:    subtotal.Add(tax).Add(fees),
	}
}

// NormalizeItems validates item shapes, assigns missing ids and recomputes
// every line total. The input slice is not modified.
func NormalizeItems(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, validationErr("order has no items")
	}

	out := make([]Item, len(items))

	for i, it := range items {
		if err := validateItem(it); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}

		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}

		it.LineTotal = it.Amount().Mul(it.UnitPrice)
		out[i] = it
	}

	return out, nil
}

func validateItem(it Item) error {
	switch {
	case it.ProductID == uuid.Nil:
		return validationErr("product is required")
	case it.UnitPrice.IsNegative():
		return validationErr("unit price cannot be negative")
	}

	switch it.PricingType {
	case catalog.PricingFixed:
		if it.WeightLbs != nil {
			return validationErr("weight given for a fixed-price product")
		}

		if it.Quantity == nil || *it.Quantity <= 0 {
			return validationErr("quantity must be positive")
		}
	case catalog.PricingPerLb:
		if it.Quantity != nil {
			return validationErr("quantity given for a per-pound product")
		}

		if it.WeightLbs == nil || !it.WeightLbs.IsPositive() {
			return validationErr("weight must be positive")
		}
	default:
		return validationErr("unknown pricing type %q", it.PricingType)
	}

	return nil
}
