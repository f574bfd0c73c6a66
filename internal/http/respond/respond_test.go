package respond_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

func TestStatus(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "validation", err: fmt.Errorf("%w: no items", order.ErrValidation), want: http.StatusBadRequest},
		{name: "bad product", err: catalog.ErrInvalid, want: http.StatusBadRequest},
		{name: "missing order", err: fmt.Errorf("getting order: %w", order.ErrNotFound), want: http.StatusNotFound},
		{name: "transition", err: &order.TransitionError{Op: order.OpClose, From: order.StatusDraft}, want: http.StatusConflict},
		{name: "stale write", err: order.ErrConcurrency, want: http.StatusConflict},
		{name: "credentials", err: user.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, respond.Status(tt.err))
		})
	}
}

func TestError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error\n", rec.Body.String())
}
