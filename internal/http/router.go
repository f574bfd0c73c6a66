package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authsvc "github.com/MrJamesThe3rd/orderdesk/internal/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/importcsv"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/report"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/settings"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/user"
	"github.com/MrJamesThe3rd/orderdesk/internal/metrics"
	usersvc "github.com/MrJamesThe3rd/orderdesk/internal/user"
)

type Handlers struct {
	Auth      *auth.Handler
	Orders    *order.Handler
	Customers *customer.Handler
	Products  *catalog.Handler
	Users     *user.Handler
	Reports   *report.Handler
	Settings  *settings.Handler
	Import    *importcsv.Handler
}

func New(issuer *authsvc.Issuer, users authsvc.UserLookup, corsOrigins []string, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(issuer.Middleware)
			r.Use(authsvc.Current(users))

			r.Get("/me", h.Auth.Me)

			r.With(authsvc.RequireArea(usersvc.AreaDashboard)).Get("/dashboard", h.Reports.Dashboard)

			r.Route("/orders", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaOrders))
				r.Use(middleware.AllowContentType("application/json"))
				h.Orders.Routes(r)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaCustomers))
				h.Customers.Routes(r)
			})

			r.Route("/products", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaProducts))
				h.Products.Routes(r)
			})

			r.Route("/import", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaProducts))
				h.Import.Routes(r)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaUsers))
				h.Users.Routes(r)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaReports))
				h.Reports.Routes(r)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Use(authsvc.RequireArea(usersvc.AreaSettings))
				h.Settings.Routes(r)
			})
		})
	})

	return router
}
