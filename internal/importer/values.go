package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
)

// parsePrice accepts "$1,234.50", "1.234,50" and "4,5". When both separators
// appear the last one is the decimal point; a lone comma is a decimal comma.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}

		return -1
	}, s)

	dot, comma := strings.LastIndex(clean, "."), strings.LastIndex(clean, ",")

	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case dot >= 0 && comma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}

	return d, nil
}

func parsePricing(s string) (catalog.PricingType, error) {
	switch normalize(s) {
	case "", "fixed", "each", "unit", "per unit", "ea":
		return catalog.PricingFixed, nil
	case "per lb", "lb", "lbs", "per pound", "pound", "weight":
		return catalog.PricingPerLb, nil
	}

	return "", fmt.Errorf("unknown pricing %q", s)
}

func parseCategory(s string) (catalog.Category, error) {
	if strings.TrimSpace(s) == "" {
		return catalog.CategoryHomemade, nil
	}

	for _, c := range catalog.Categories {
		if normalize(string(c)) == normalize(s) {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown category %q", s)
}

// parseOptionalInt returns nil for a blank cell.
func parseOptionalInt(field, s string) (*int, error) {
	if s == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", field, s)
	}

	return &n, nil
}

// parseActive treats a blank cell as active.
func parseActive(s string) (bool, error) {
	switch normalize(s) {
	case "", "yes", "y", "true", "1", "active":
		return true, nil
	case "no", "n", "false", "0", "inactive":
		return false, nil
	}

	return false, fmt.Errorf("invalid active flag %q", s)
}
