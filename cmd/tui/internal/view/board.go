package view

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

type boardState int

const (
	boardStateBrowse boardState = iota
	boardStateForm
)

type boardAction int

const (
	actionPayment boardAction = iota
	actionClose
	actionCancel
	actionResend
	actionStatusUpdate
)

// BoardModel is the order board: a filtered table of orders with a detail
// pane and forms for every lifecycle step.
type BoardModel struct {
	CommonModel
	orders *order.Service

	state      boardState
	table      table.Model
	list       []*order.Order
	showDetail bool

	form   *huh.Form
	action boardAction
	input  *boardInput

	statusFilterIdx int
	filter          order.ListFilter

	loading bool
	err     error
	status  string
}

// boardInput holds form bindings. The model is copied on every update, so
// the form writes through this pointer.
type boardInput struct {
	method   order.PaymentMethod
	amount   string
	receipt  bool
	text     string
	email    bool
	sms      bool
	channel  order.Channel
	template string
}

func NewBoardModel(svc *order.Service, actor order.Actor) BoardModel {
	columns := []table.Column{
		{Title: "Order", Width: 10},
		{Title: "Invoice", Width: 10},
		{Title: "Created", Width: 17},
		{Title: "Status", Width: 12},
		{Title: "Payment", Width: 17},
		{Title: "Total", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return BoardModel{
		CommonModel: CommonModel{Actor: actor},
		orders:      svc,
		table:       t,
		loading:     true,
	}
}

func (m BoardModel) Title() string { return "Order Board" }

func (m BoardModel) ShortHelp() string {
	if m.state == boardStateForm {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: details | s: status filter | n: next step | p: payment | c: close | x: cancel | i: resend invoice | u: status update | r: refresh"
}

func (m BoardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.list = msg.orders
			m.refreshTable()
		}

		return m, nil

	case boardActionMsg:
		m.state = boardStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	if m.state == boardStateForm {
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m BoardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "enter":
			m.showDetail = !m.showDetail
			return m, nil
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % (len(order.Statuses) + 1)
			m.filter.Status = nil

			if m.statusFilterIdx > 0 {
				m.filter.Status = new(order.Statuses[m.statusFilterIdx-1])
			}

			return m, m.loadCmd()
		case "n":
			return m, m.advanceCmd()
		case "p":
			return m.openForm(actionPayment)
		case "c":
			return m.openForm(actionClose)
		case "x":
			return m.openForm(actionCancel)
		case "i":
			return m.openForm(actionResend)
		case "u":
			return m.openForm(actionStatusUpdate)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BoardModel) selectedOrder() *order.Order {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m BoardModel) openForm(action boardAction) (tea.Model, tea.Cmd) {
	o := m.selectedOrder()
	if o == nil {
		return m, nil
	}

	m.action = action
	in := &boardInput{}
	m.input = in

	var group *huh.Group

	switch action {
	case actionPayment:
		in.method = order.PaymentCOD
		in.amount = o.Total.StringFixed(2)
		in.receipt = true
		group = huh.NewGroup(
			huh.NewSelect[order.PaymentMethod]().
				Title("Method").
				Options(huh.NewOption("Cash on delivery", order.PaymentCOD), huh.NewOption("Card", order.PaymentCard)).
				Value(&in.method),
			huh.NewInput().
				Title("Amount").
				Value(&in.amount).
				Validate(func(s string) error {
					_, err := decimal.NewFromString(strings.TrimSpace(s))
					return err
				}),
			huh.NewConfirm().
				Title("Send receipt?").
				Value(&in.receipt),
		)
	case actionClose:
		group = huh.NewGroup(
			huh.NewInput().Title("Notes").Placeholder("optional").Value(&in.text),
		)
	case actionCancel:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Reason").
				Value(&in.text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a reason is required")
					}

					return nil
				}),
		)
	case actionResend:
		in.email, in.sms = true, true
		group = huh.NewGroup(
			huh.NewConfirm().Title("Email invoice?").Value(&in.email),
			huh.NewConfirm().Title("Text invoice?").Value(&in.sms),
		)
	case actionStatusUpdate:
		in.channel = order.ChannelSMS
		group = huh.NewGroup(
			huh.NewSelect[order.Channel]().
				Title("Channel").
				Options(huh.NewOption("SMS", order.ChannelSMS), huh.NewOption("Email", order.ChannelEmail)).
				Value(&in.channel),
			huh.NewSelect[string]().
				Title("Template").
				Options(statusTemplateOptions()...).
				Value(&in.template),
			huh.NewInput().
				Title("Message").
				Placeholder("used when no template is picked").
				Value(&in.text),
		)
	}

	m.form = huh.NewForm(group).WithWidth(45).WithShowHelp(false)
	m.state = boardStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func statusTemplateOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("None", "")}

	defaults := settings.Defaults().Templates
	for _, key := range slices.Sorted(maps.Keys(defaults)) {
		if strings.HasPrefix(string(key), "status") {
			opts = append(opts, huh.NewOption(string(key), string(key)))
		}
	}

	return opts
}

func (m BoardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = boardStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.submitCmd()
}

func (m BoardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading orders...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	statusLabel := "All"
	if m.filter.Status != nil {
		statusLabel = string(*m.filter.Status)
	}

	header := fmt.Sprintf("Signed in as %s | [s] Status: %s", m.Actor.Name, activeStyle(statusLabel))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	panelStyle := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(52)

	switch {
	case m.state == boardStateForm && m.form != nil:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	case m.showDetail:
		if o := m.selectedOrder(); o != nil {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(detail(o)))
		}
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func detail(o *order.Order) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Order %s  Invoice %s\n", orDash(o.Number()), orDash(o.Invoice()))
	fmt.Fprintf(&sb, "Status: %s", o.Status)

	if o.PaymentStatus != order.PaymentNone {
		fmt.Fprintf(&sb, " (%s)", o.PaymentStatus)
	}

	sb.WriteString("\n\n")

	for _, it := range o.Items {
		amount := it.Amount().String()
		if it.WeightLbs != nil {
			amount = it.WeightLbs.StringFixed(2) + " lb"
		}

		fmt.Fprintf(&sb, "%-20s %8s %10s\n", it.ProductName, amount, FormatMoney(it.LineTotal))
	}

	fmt.Fprintf(&sb, "\nSubtotal %s  Tax %s  Fees %s\nTotal %s\n", FormatMoney(o.Subtotal), FormatMoney(o.Tax), FormatMoney(o.Fees), FormatMoney(o.Total))

	if o.CancelReason != "" {
		fmt.Fprintf(&sb, "Cancelled: %s\n", o.CancelReason)
	}

	sb.WriteString("\nTimeline\n")

	for _, ev := range o.Timeline {
		fmt.Fprintf(&sb, "%s  %s by %s", FormatTime(ev.At), ev.Action, ev.By)

		for _, k := range slices.Sorted(maps.Keys(ev.Data)) {
			fmt.Fprintf(&sb, " %s=%s", k, ev.Data[k])
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func (m *BoardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))

	for _, o := range m.list {
		rows = append(rows, table.Row{
			orDash(o.Number()),
			orDash(o.Invoice()),
			FormatTime(o.CreatedAt),
			string(o.Status),
			orDash(string(o.PaymentStatus)),
			FormatMoney(o.Total),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type boardLoadMsg struct {
	orders []*order.Order
	err    error
}

type boardActionMsg struct {
	status string
	err    error
}

func (m BoardModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		orders, err := m.orders.List(ctx, filter)

		return boardLoadMsg{orders: orders, err: err}
	}
}

func (m BoardModel) advanceCmd() tea.Cmd {
	o := m.selectedOrder()
	if o == nil {
		return nil
	}

	next := order.NextStatuses(o.Status)
	if len(next) == 0 {
		return func() tea.Msg {
			return boardActionMsg{err: fmt.Errorf("%s has no next step", orDash(o.Number()))}
		}
	}

	id, target := o.ID, next[0]

	return m.run(func() (string, error) {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.orders.AdvanceStatus(ctx, id, target, m.Actor)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s is now %s", orDash(updated.Number()), updated.Status), nil
	})
}

func (m BoardModel) submitCmd() tea.Cmd {
	o := m.selectedOrder()
	if o == nil {
		return nil
	}

	id, action, in := o.ID, m.action, *m.input

	return m.run(func() (string, error) {
		ctx, cancel := DbCtx()
		defer cancel()

		switch action {
		case actionPayment:
			paid, err := decimal.NewFromString(strings.TrimSpace(in.amount))
			if err != nil {
				return "", err
			}

			updated, err := m.orders.RecordPayment(ctx, id, order.PaymentParams{Method: in.method, Amount: paid, SendReceipt: in.receipt}, m.Actor)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Recorded %s payment on %s", FormatMoney(paid), updated.Number()), nil
		case actionClose:
			updated, err := m.orders.Close(ctx, id, m.Actor, in.text)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Closed %s", updated.Number()), nil
		case actionCancel:
			updated, err := m.orders.Cancel(ctx, id, m.Actor, in.text)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Cancelled %s", orDash(updated.Number())), nil
		case actionResend:
			msgs, err := m.orders.ResendInvoice(ctx, id, m.Actor, in.email, in.sms)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("Invoice resent (%d messages logged)", len(msgs)), nil
		case actionStatusUpdate:
			text := in.text
			if in.template != "" {
				text = in.template
			}

			msg, err := m.orders.SendStatusUpdate(ctx, id, m.Actor, in.channel, text)
			if err != nil {
				return "", err
			}

			return fmt.Sprintf("%s update %s", msg.Channel, strings.ToLower(string(msg.Status))), nil
		}

		return "", nil
	})
}

func (m BoardModel) run(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn()
		return boardActionMsg{status: status, err: err}
	}
}
