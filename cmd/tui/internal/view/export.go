package view

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
)

const exportTimeout = 2 * time.Minute

type exportStep int

const (
	exportStepWindow exportStep = iota
	exportStepOptions
	exportStepWriting
	exportStepDone
)

// exportOptions is bound to the options form.
type exportOptions struct {
	status string
	dir    string
}

// ExportModel writes invoice files for the orders in a window and lists
// what was written per order.
type ExportModel struct {
	CommonModel
	reports *report.Service

	step   exportStep
	window TimeframeSelectedMsg
	picker TimeframePicker
	opts   *exportOptions
	form   *huh.Form

	spinner spinner.Model
	results table.Model
	items   []report.ExportItem
	err     error
}

func NewExportModel(svc *report.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		reports: svc,
		picker:  NewTimeframePicker(TimeframeThisMonth),
		opts:    &exportOptions{dir: "./invoices"},
		spinner: s,
		results: newExportTable(),
	}
}

func newExportTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Order", Width: 10},
			{Title: "Invoice", Width: 10},
			{Title: "Created", Width: 11},
			{Title: "Status", Width: 17},
			{Title: "Total", Width: 12},
			{Title: "File", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)
	t.SetStyles(s)

	return t
}

func (m ExportModel) Title() string { return "Export Invoices" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportStepDone:
		return "↑/↓: scroll | n: new export | Esc: back"
	case exportStepWriting:
		return "Writing..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.window = msg
		m.form = m.optionsForm()
		m.step = exportStepOptions

		return m, m.form.Init()

	case exportDoneMsg:
		m.step = exportStepDone
		m.err = msg.err
		m.items = msg.items
		m.results.SetRows(exportRows(msg.items))
		m.results.GotoTop()

		return m, nil
	}

	switch m.step {
	case exportStepWindow:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd

	case exportStepOptions:
		return m.updateOptions(msg)

	case exportStepWriting:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case exportStepDone:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "esc":
				return m, Back
			case "n":
				m.step = exportStepWindow
				m.picker.Reset(TimeframeThisMonth)
				m.items, m.err = nil, nil

				return m, nil
			}
		}

		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ExportModel) updateOptions(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.step = exportStepWindow
		m.picker.Reset(TimeframeThisMonth)

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.step = exportStepWriting

	return m, tea.Batch(m.spinner.Tick, m.exportCmd(exportFilter(m.window, m.opts.status), m.opts.dir))
}

func (m ExportModel) optionsForm() *huh.Form {
	statuses := []huh.Option[string]{huh.NewOption("Any status", "")}
	for _, s := range order.Statuses {
		if s == order.StatusDraft {
			continue
		}

		statuses = append(statuses, huh.NewOption(string(s), string(s)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Order status").
				Description("Drafts have no invoice and are never written").
				Options(statuses...).
				Value(&m.opts.status),
			huh.NewInput().
				Title("Output directory").
				Placeholder("./invoices").
				Value(&m.opts.dir),
		),
	).WithWidth(50).WithShowHelp(false)
}

// exportFilter turns the picked window and status into an order filter.
func exportFilter(window TimeframeSelectedMsg, status string) order.ListFilter {
	var filter order.ListFilter

	if !window.All {
		filter.StartDate = new(window.Start)
		filter.EndDate = new(window.End)
	}

	if status != "" {
		filter.Status = new(order.Status(status))
	}

	return filter
}

func exportRows(items []report.ExportItem) []table.Row {
	rows := make([]table.Row, 0, len(items))

	for _, it := range items {
		file := "-"
		if it.FilePath != "" {
			file = filepath.Base(it.FilePath)
		}

		rows = append(rows, table.Row{
			orDash(it.Order.Number()),
			orDash(it.Order.Invoice()),
			FormatDate(it.Order.CreatedAt),
			string(it.Order.Status),
			FormatMoney(it.Order.Total),
			file,
		})
	}

	return rows
}

// exportTally counts written files and sums the totals of the invoiced orders.
func exportTally(items []report.ExportItem) (written, skipped int, value decimal.Decimal) {
	for _, it := range items {
		if it.FilePath == "" {
			skipped++
			continue
		}

		written++
		value = value.Add(it.Order.Total)
	}

	return written, skipped, value
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportStepWindow:
		return pad.Render(m.picker.View())

	case exportStepOptions:
		return pad.Render(m.form.View())

	case exportStepWriting:
		return pad.Render(fmt.Sprintf("%s Writing invoices to %s...", m.spinner.View(), m.opts.dir))

	case exportStepDone:
		if m.err != nil {
			return pad.Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}

		if len(m.items) == 0 {
			return pad.Render("No orders matched.")
		}

		written, skipped, value := exportTally(m.items)
		header := fmt.Sprintf("Wrote %s invoice files to %s (%s invoiced). %d orders had no invoice.",
			activeStyle(fmt.Sprint(written)), m.opts.dir, FormatMoney(value), skipped)

		return pad.Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Render(m.results.View()),
		))
	}

	return ""
}

type exportDoneMsg struct {
	items []report.ExportItem
	err   error
}

func (m ExportModel) exportCmd(filter order.ListFilter, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		items, err := m.reports.ExportInvoices(ctx, filter, dir)

		return exportDoneMsg{items: items, err: err}
	}
}
