package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("settings not found")
	ErrInvalid  = errors.New("invalid settings")
)

// Template names a message template by its purpose.
type Template string

const (
	TemplateInvoiceEmail     Template = "invoiceEmail"
	TemplateInvoiceSMS       Template = "invoiceSms"
	TemplateReceiptEmail     Template = "receiptEmail"
	TemplateReceiptSMS       Template = "receiptSms"
	TemplateStatusProcessing Template = "statusProcessing"
	TemplateStatusPrepared   Template = "statusPrepared"
	TemplateStatusDelivered  Template = "statusDelivered"
)

// Settings is the business configuration read by the ledger.
type Settings struct {
	BusinessName string              `json:"business_name"`
	TaxEnabled   bool                `json:"tax_enabled"`
	TaxPercent   decimal.Decimal     `json:"tax_percent"`
	FeesEnabled  bool                `json:"fees_enabled"`
	FeeValue     decimal.Decimal     `json:"fee_value"`
	Templates    map[Template]string `json:"templates"`
}

var defaultTemplates = map[Template]string{
	TemplateInvoiceEmail:     "Order {{orderId}}, Invoice {{invoiceId}}. Items: {{items}}. Total: {{total}}. Thank you!",
	TemplateInvoiceSMS:       "Order {{orderId}}, Invoice {{invoiceId}}. Total: {{total}}. Thank you!",
	TemplateReceiptEmail:     "Payment received. Amount: {{amount}}, Method: {{method}}. Invoice {{invoiceId}}.",
	TemplateReceiptSMS:       "Payment received. Amount: {{amount}}. Invoice {{invoiceId}}.",
	TemplateStatusProcessing: "Your order is Processing.",
	TemplateStatusPrepared:   "Your order is Prepared.",
	TemplateStatusDelivered:  "Your order has been Delivered.",
}

// Defaults is used until an administrator saves settings.
func Defaults() Settings {
	templates := make(map[Template]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		templates[k] = v
	}

	return Settings{
		BusinessName: "Home Made Foods",
		TaxEnabled:   false,
		TaxPercent:   decimal.RequireFromString("8.5"),
		FeesEnabled:  false,
		FeeValue:     decimal.RequireFromString("2.5"),
		Templates:    templates,
	}
}

// Template returns the configured text for key, falling back to the default.
func (s Settings) Template(key Template) string {
	if t, ok := s.Templates[key]; ok && strings.TrimSpace(t) != "" {
		return t
	}

	return defaultTemplates[key]
}

// IsTemplate reports whether key names a known template.
func IsTemplate(key Template) bool {
	_, ok := defaultTemplates[key]
	return ok
}

// Render substitutes {{name}} placeholders. Unknown placeholders are left as written.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}

	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (s Settings) validate() error {
	switch {
	case strings.TrimSpace(s.BusinessName) == "":
		return fmt.Errorf("%w: business name is required", ErrInvalid)
	case s.TaxPercent.IsNegative() || s.TaxPercent.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: tax percent must be between 0 and 100", ErrInvalid)
	case s.FeeValue.IsNegative():
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalid)
	}

	for key := range s.Templates {
		if !IsTemplate(key) {
			return fmt.Errorf("%w: unknown template %q", ErrInvalid, key)
		}
	}

	return nil
}
