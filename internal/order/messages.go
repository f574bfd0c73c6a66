package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/money"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

const defaultStatusText = "Status update sent."

func sendStatus(send bool) MessageStatus {
	if send {
		return MessageSent
	}

	return MessageSkipped
}

// newMessage builds a log entry. Skipped messages carry no details.
func newMessage(o *Order, typ MessageType, ch Channel, send bool, details string, actor Actor, at time.Time) *Message {
	m := &Message{
		ID:      uuid.New(),
		OrderID: o.ID,
		Type:    typ,
		Channel: ch,
		Status:  sendStatus(send),
		By:      actor.Name,
		At:      at,
	}

	if send {
		m.Details = details
	}

	return m
}

func invoiceMessages(o *Order, st settings.Settings, sendEmail, sendSMS bool, actor Actor, at time.Time) []*Message {
	vars := invoiceVars(o)

	return []*Message{
		newMessage(o, MessageInvoice, ChannelEmail, sendEmail,
			settings.Render(st.Template(settings.TemplateInvoiceEmail), vars), actor, at),
		newMessage(o, MessageInvoice, ChannelSMS, sendSMS,
			settings.Render(st.Template(settings.TemplateInvoiceSMS), vars), actor, at),
	}
}

func receiptMessages(o *Order, st settings.Settings, p PaymentParams, actor Actor, at time.Time) []*Message {
	vars := invoiceVars(o)
	vars["amount"] = money.Format(p.Amount)
	vars["method"] = string(p.Method)

	return []*Message{
		newMessage(o, MessageReceipt, ChannelEmail, true,
			settings.Render(st.Template(settings.TemplateReceiptEmail), vars), actor, at),
		newMessage(o, MessageReceipt, ChannelSMS, true,
			settings.Render(st.Template(settings.TemplateReceiptSMS), vars), actor, at),
	}
}

func statusText(o *Order, st settings.Settings, text string) string {
	text = strings.TrimSpace(text)

	switch key := settings.Template(text); {
	case text == "":
		return defaultStatusText
	case settings.IsTemplate(key):
		return settings.Render(st.Template(key), invoiceVars(o))
	default:
		return text
	}
}

func invoiceVars(o *Order) map[string]string {
	return map[string]string{
		"orderId":   o.Number(),
		"invoiceId": o.Invoice(),
		"items":     itemSummary(o.Items),
		"total":     money.Format(o.Total),
	}
}

// itemSummary renders lines as "Brownies x2, Ground Beef 1.50 lb".
func itemSummary(items []Item) string {
	parts := make([]string, len(items))

	for i, it := range items {
		if it.PricingType == catalog.PricingPerLb {
			parts[i] = fmt.Sprintf("%s %s lb", it.ProductName, it.Amount().StringFixed(2))
			continue
		}

		parts[i] = fmt.Sprintf("%s x%s", it.ProductName, it.Amount().String())
	}

	return strings.Join(parts, ", ")
}
