package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/orderdesk/internal/report"
)

var reportRanges = []report.Range{
	report.RangeDaily, report.RangeWeekly, report.RangeMonthly, report.RangeYearly, report.RangeAll,
}

// ReportsModel shows the dashboard next to a sales breakdown for the chosen range.
type ReportsModel struct {
	CommonModel
	reports *report.Service

	rangeIdx  int
	dashboard *report.Dashboard
	sales     *report.Sales

	loading bool
	err     error
}

func NewReportsModel(svc *report.Service) ReportsModel {
	return ReportsModel{
		reports:  svc,
		rangeIdx: 2,
		loading:  true,
	}
}

func (m ReportsModel) Title() string { return "Reports" }

func (m ReportsModel) ShortHelp() string {
	return "Esc: back | t: cycle range | r: refresh"
}

func (m ReportsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadMsg:
		m.loading = false
		m.err = msg.err
		m.dashboard = msg.dashboard
		m.sales = msg.sales

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "t":
			m.rangeIdx = (m.rangeIdx + 1) % len(reportRanges)
			m.loading = true

			return m, m.loadCmd()
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m ReportsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading reports...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	box := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			box.Render(renderDashboard(m.dashboard)),
			box.Render(renderSales(m.sales)),
		),
	)
}

func renderDashboard(d *report.Dashboard) string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Dashboard") + "\n\n")
	fmt.Fprintf(&sb, "Today:   %d orders  %s\n", d.TodayOrders, FormatMoney(d.TodayRevenue))
	fmt.Fprintf(&sb, "Overall: %d orders  %s\n", d.TotalOrders, FormatMoney(d.TotalRevenue))
	fmt.Fprintf(&sb, "Pending: %d\n", d.PendingOrders)

	if len(d.LowStock) > 0 {
		sb.WriteString("\nLow stock\n")

		for _, p := range d.LowStock {
			stock := 0
			if p.StockQuantity != nil {
				stock = *p.StockQuantity
			}

			fmt.Fprintf(&sb, "  %-20s %d left\n", p.Name, stock)
		}
	}

	if len(d.TopItems) > 0 {
		sb.WriteString("\nTop items\n")

		for _, it := range d.TopItems {
			fmt.Fprintf(&sb, "  %-20s %6s %10s\n", it.Name, it.Count.String(), FormatMoney(it.Revenue))
		}
	}

	sb.WriteString("\nLast 7 days\n")

	for _, day := range d.LastWeek {
		fmt.Fprintf(&sb, "  %s %10s\n", day.Day.Format("Mon 02"), FormatMoney(day.Revenue))
	}

	return sb.String()
}

func renderSales(s *report.Sales) string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Sales") + "  [t] " + activeStyle(string(s.Range)) + "\n\n")
	fmt.Fprintf(&sb, "Revenue: %s over %d orders\n", FormatMoney(s.Revenue), len(s.Rows))

	sb.WriteString("\nBy category\n")

	for _, c := range s.Categories {
		fmt.Fprintf(&sb, "  %-12s %4d items %10s\n", c.Category, c.Items, FormatMoney(c.Revenue))
	}

	sb.WriteString("\nBy payment\n")

	for _, p := range s.Payments {
		fmt.Fprintf(&sb, "  %-12s %4d paid  %10s\n", p.Method, p.Count, FormatMoney(p.Revenue))
	}

	sb.WriteString("\nBy employee\n")

	for _, e := range s.Employees {
		fmt.Fprintf(&sb, "  %-12s %4d orders %10s\n", e.Name, e.Orders, FormatMoney(e.Revenue))
	}

	return sb.String()
}

type reportsLoadMsg struct {
	dashboard *report.Dashboard
	sales     *report.Sales
	err       error
}

func (m ReportsModel) loadCmd() tea.Cmd {
	r := reportRanges[m.rangeIdx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		dashboard, err := m.reports.Dashboard(ctx)
		if err != nil {
			return reportsLoadMsg{err: err}
		}

		sales, err := m.reports.Sales(ctx, report.SalesFilter{Range: r})
		if err != nil {
			return reportsLoadMsg{err: err}
		}

		return reportsLoadMsg{dashboard: dashboard, sales: sales}
	}
}
