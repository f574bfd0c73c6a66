package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/money"
)

const dbTimeout = 5 * time.Second

func FormatMoney(d decimal.Decimal) string {
	return money.Format(d)
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
