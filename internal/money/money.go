// Package money formats amounts for invoices, receipts and reports.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders d as dollars with cents, e.g. "$1,234.50".
func Format(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// Plain renders d with two decimals and no symbol, as stored in timeline data.
func Plain(d decimal.Decimal) string {
	return d.StringFixed(2)
}
