package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/orderdesk/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/orderdesk/internal/catalog/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/config"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	customerStore "github.com/MrJamesThe3rd/orderdesk/internal/customer/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/database"
	"github.com/MrJamesThe3rd/orderdesk/internal/events"
	"github.com/MrJamesThe3rd/orderdesk/internal/importer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	orderStore "github.com/MrJamesThe3rd/orderdesk/internal/order/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
	settingsStore "github.com/MrJamesThe3rd/orderdesk/internal/settings/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
	userStore "github.com/MrJamesThe3rd/orderdesk/internal/user/store"
)

type model struct {
	orderService  *order.Service
	reportService *report.Service
	importService *importer.Service

	actor       order.Actor
	currentView View

	loginView   view.LoginModel
	boardView   view.BoardModel
	reportsView view.ReportsModel
	importView  view.ImportModel
	exportView  view.ExportModel
}

type View int

const (
	ViewLogin   View = 0
	ViewMenu    View = 1
	ViewBoard   View = 2
	ViewReports View = 3
	ViewImport  View = 4
	ViewExport  View = 5
)

func initialModel() (model, func()) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	cleanup := func() { db.Close() }

	var publisher order.Publisher = events.Discard{}

	if cfg.Events.URL != "" {
		p, err := events.Dial(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}

		publisher = p
		cleanup = func() {
			p.Close()
			db.Close()
		}
	}

	catalogSvc := catalog.NewService(catalogStore.New(db))
	customerSvc := customer.NewService(customerStore.New(db))
	settingsSvc := settings.NewService(settingsStore.New(db))
	userSvc := user.NewService(userStore.New(db))
	orderSvc := order.NewService(orderStore.New(db), catalogSvc, customerSvc, settingsSvc, order.WithPublisher(publisher))
	reportSvc := report.NewService(orderSvc, catalogSvc, customerSvc, userSvc, settingsSvc)
	importSvc := importer.NewService(catalogSvc, customerSvc)

	return model{
		orderService:  orderSvc,
		reportService: reportSvc,
		importService: importSvc,
		currentView:   ViewLogin,
		loginView:     view.NewLoginModel(userSvc),
		importView:    view.NewImportModel(importSvc),
		exportView:    view.NewExportModel(reportSvc),
	}, cleanup
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBoard
				m.boardView = view.NewBoardModel(m.orderService, m.actor)

				return m, m.boardView.Init()
			case "2":
				m.currentView = ViewReports
				m.reportsView = view.NewReportsModel(m.reportService)

				return m, m.reportsView.Init()
			case "3":
				m.currentView = ViewImport
				return m, m.importView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.reportService)

				return m, m.exportView.Init()
			}
		}
	case view.LoggedInMsg:
		m.actor = order.Actor{ID: msg.User.ID, Name: msg.User.Name}
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewBoard:
		var newModel tea.Model
		newModel, cmd = m.boardView.Update(msg)
		m.boardView = newModel.(view.BoardModel)
	case ViewReports:
		var newModel tea.Model
		newModel, cmd = m.reportsView.Update(msg)
		m.reportsView = newModel.(view.ReportsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"OrderDesk\n" +
				"Signed in as " + m.actor.Name + "\n\n" +
				"1. Order Board\n" +
				"2. Reports\n" +
				"3. Import CSV\n" +
				"4. Export Invoices\n\n" +
				"q. Quit",
		)
	case ViewBoard:
		return m.boardView.View()
	case ViewReports:
		return m.reportsView.View()
	case ViewImport:
		return m.importView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	m, cleanup := initialModel()
	defer cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
