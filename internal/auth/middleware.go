package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// principal in the request context.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		p, err := i.Parse(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Current reloads the account behind the token on every request. Deleted and
// deactivated accounts are rejected, and the stored name and role replace
// the ones signed into the token.
func Current(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			u, err := users.Get(r.Context(), p.ID)
			switch {
			case errors.Is(err, user.ErrNotFound):
				http.Error(w, "account not found", http.StatusUnauthorized)
				return
			case err != nil:
				slog.Error("failed to load account", "user_id", p.ID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)

				return
			case !u.Active:
				http.Error(w, "account deactivated", http.StatusUnauthorized)
				return
			}

			p.Name, p.Role = u.Name, u.Role

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func RequireArea(area user.Area) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			if !user.CanAccess(p.Role, area) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
