package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/orderdesk/internal/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/orderdesk/internal/catalog/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/config"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	customerStore "github.com/MrJamesThe3rd/orderdesk/internal/customer/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/database"
	"github.com/MrJamesThe3rd/orderdesk/internal/events"
	deskHttp "github.com/MrJamesThe3rd/orderdesk/internal/http"
	authHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/auth"
	catalogHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/catalog"
	customerHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/customer"
	importHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/importcsv"
	orderHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/order"
	reportHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/report"
	settingsHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/settings"
	userHandler "github.com/MrJamesThe3rd/orderdesk/internal/http/user"
	"github.com/MrJamesThe3rd/orderdesk/internal/importer"
	"github.com/MrJamesThe3rd/orderdesk/internal/metrics"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	orderStore "github.com/MrJamesThe3rd/orderdesk/internal/order/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
	settingsStore "github.com/MrJamesThe3rd/orderdesk/internal/settings/store"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
	userStore "github.com/MrJamesThe3rd/orderdesk/internal/user/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	var publisher order.Publisher = events.Discard{}

	if cfg.Events.URL != "" {
		p, err := events.Dial(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer p.Close()

		publisher = p
	}

	var (
		catalogService  = catalog.NewService(catalogStore.New(db))
		customerService = customer.NewService(customerStore.New(db))
		settingsService = settings.NewService(settingsStore.New(db))
		userService     = user.NewService(userStore.New(db))
		orderService    = order.NewService(orderStore.New(db), catalogService, customerService, settingsService,
			order.WithPublisher(publisher),
			order.WithObserver(metrics.RecordLedgerOperation),
		)
		reportService = report.NewService(orderService, catalogService, customerService, userService, settingsService)
		importService = importer.NewService(catalogService, customerService)
		issuer        = auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TTL)
	)

	if cfg.Admin.Password != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			slog.Error("failed to seed admin", "error", err)
			os.Exit(1)
		}

		if created {
			slog.Info("created admin account", "username", cfg.Admin.Username)
		}
	}

	router := deskHttp.New(issuer, userService, cfg.Server.CORSOrigins, deskHttp.Handlers{
		Auth:      authHandler.NewHandler(userService, issuer),
		Orders:    orderHandler.NewHandler(orderService, reportService),
		Customers: customerHandler.NewHandler(customerService, reportService),
		Products:  catalogHandler.NewHandler(catalogService),
		Users:     userHandler.NewHandler(userService),
		Reports:   reportHandler.NewHandler(reportService),
		Settings:  settingsHandler.NewHandler(settingsService),
		Import:    importHandler.NewHandler(importService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	servers := []*http.Server{srv}

	if cfg.Metrics.Addr != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, metricsSrv)

		go func() {
			slog.Info("serving metrics", "addr", metricsSrv.Addr)

			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown failed", "addr", s.Addr, "error", err)
			}
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
