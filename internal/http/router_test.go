package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/orderdesk/internal/auth"
	apihttp "github.com/MrJamesThe3rd/orderdesk/internal/http"
	authhttp "github.com/MrJamesThe3rd/orderdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/importcsv"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/report"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/settings"
	userhttp "github.com/MrJamesThe3rd/orderdesk/internal/http/user"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

type accounts map[uuid.UUID]*user.User

func (a accounts) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := a[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	return u, nil
}

func newRouter(issuer *auth.Issuer, users accounts) http.Handler {
	return apihttp.New(issuer, users, []string{"http://localhost:5173"}, apihttp.Handlers{
		Auth:      authhttp.NewHandler(nil, issuer),
		Orders:    order.NewHandler(nil, nil),
		Customers: customer.NewHandler(nil, nil),
		Products:  catalog.NewHandler(nil),
		Users:     userhttp.NewHandler(nil),
		Reports:   report.NewHandler(nil),
		Settings:  settings.NewHandler(nil),
		Import:    importcsv.NewHandler(nil),
	})
}

func TestRouter_Access(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	users := accounts{}
	router := newRouter(issuer, users)

	issue := func(u *user.User) string {
		tok, _, err := issuer.Issue(u)
		require.NoError(t, err)

		return tok
	}

	token := func(role user.Role) string {
		u := &user.User{ID: uuid.New(), Name: "Sam", Role: role, Active: true}
		users[u.ID] = u

		return issue(u)
	}

	// Signed while active, deactivated afterwards.
	deactivated := &user.User{ID: uuid.New(), Name: "Dee", Role: user.RoleAdmin, Active: true}
	users[deactivated.ID] = deactivated
	deactivatedToken := issue(deactivated)
	deactivated.Active = false

	// Signed as Admin, demoted to Employee afterwards.
	demoted := &user.User{ID: uuid.New(), Name: "Dan", Role: user.RoleAdmin, Active: true}
	users[demoted.ID] = demoted
	demotedToken := issue(demoted)
	demoted.Role = user.RoleEmployee

	deleted := issue(&user.User{ID: uuid.New(), Name: "Gone", Role: user.RoleAdmin})

	type testCase struct {
		name     string
		path     string
		token    string
		wantCode int
	}

	tests := []testCase{
		{name: "health is public", path: "/health", wantCode: http.StatusOK},
		{name: "metrics is not on the api listener", path: "/metrics", wantCode: http.StatusNotFound},
		{name: "orders need a token", path: "/api/v1/orders", wantCode: http.StatusUnauthorized},
		{name: "garbage token", path: "/api/v1/orders", token: "nope", wantCode: http.StatusUnauthorized},
		{name: "employee cannot open settings", path: "/api/v1/settings", token: token(user.RoleEmployee), wantCode: http.StatusForbidden},
		{name: "supervisor cannot open settings", path: "/api/v1/settings", token: token(user.RoleSupervisor), wantCode: http.StatusForbidden},
		{name: "employee cannot open reports", path: "/api/v1/reports/sales", token: token(user.RoleEmployee), wantCode: http.StatusForbidden},
		{name: "me echoes the principal", path: "/api/v1/me", token: token(user.RoleEmployee), wantCode: http.StatusOK},
		{name: "deactivated account", path: "/api/v1/me", token: deactivatedToken, wantCode: http.StatusUnauthorized},
		{name: "deleted account", path: "/api/v1/me", token: deleted, wantCode: http.StatusUnauthorized},
		{name: "demoted account loses settings", path: "/api/v1/settings", token: demotedToken, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
