// Package respond writes JSON bodies and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/orderdesk/internal/catalog"
	"github.com/MrJamesThe3rd/orderdesk/internal/customer"
	"github.com/MrJamesThe3rd/orderdesk/internal/importer"
	"github.com/MrJamesThe3rd/orderdesk/internal/order"
	"github.com/MrJamesThe3rd/orderdesk/internal/report"
	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its sentinel maps to. Unknown errors are
// logged and hidden behind a generic 500.
func Error(w http.ResponseWriter, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", status)

		return
	}

	http.Error(w, err.Error(), status)
}

func Status(err error) int {
	switch {
	case errors.Is(err, order.ErrValidation),
		errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, customer.ErrInvalid),
		errors.Is(err, user.ErrInvalid),
		errors.Is(err, settings.ErrInvalid),
		errors.Is(err, report.ErrInvalidRange),
		errors.Is(err, importer.ErrUnknownKind),
		errors.Is(err, importer.ErrNoHeader):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrConcurrency),
		errors.Is(err, user.ErrUsernameTaken):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
