package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/money"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

// Invoice renders the printable invoice for an order.
func (s *Service) Invoice(ctx context.Context, id uuid.UUID, w io.Writer) error {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting order: %w", err)
	}

	c, err := s.customers.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return fmt.Errorf("getting customer: %w", err)
	}

	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("getting settings: %w", err)
	}

	return WriteInvoice(w, o, c, st)
}

// WriteInvoice prints o as a plain-text invoice.
func WriteInvoice(w io.Writer, o *order.Order, c *customer.Customer, st settings.Settings) error {
	var sb strings.Builder

	sb.WriteString(st.BusinessName + "\n\n")
	fmt.Fprintf(&sb, "Invoice #: %s\n", o.Invoice())
	fmt.Fprintf(&sb, "Order #:   %s\n", o.Number())
	fmt.Fprintf(&sb, "Date:      %s\n\n", o.CreatedAt.Format("2006-01-02"))

	sb.WriteString("Bill To:\n")
	sb.WriteString(orDash(c.Name) + "\n")
	sb.WriteString(orDash(c.Phone) + "\n")
	sb.WriteString(orDash(c.Email) + "\n\n")

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Item\tQty\tUnit\tTotal\t")

	for _, it := range o.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", it.ProductName, quantityLabel(it), money.Format(it.UnitPrice), money.Format(it.LineTotal))
	}

	tw.Flush()

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Subtotal: %s\n", money.Format(o.Subtotal))
	fmt.Fprintf(&sb, "Tax:      %s\n", money.Format(o.Tax))
	fmt.Fprintf(&sb, "Fees:     %s\n", money.Format(o.Fees))
	fmt.Fprintf(&sb, "Total:    %s\n\n", money.Format(o.Total))
	sb.WriteString("Thank you for your order.\n")

	_, err := io.WriteString(w, sb.String())

	return err
}

func quantityLabel(it order.Item) string {
	if it.WeightLbs != nil {
		return it.WeightLbs.StringFixed(2) + " lb"
	}

	if it.Quantity != nil {
		return fmt.Sprintf("%d", *it.Quantity)
	}

	return "-"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}
