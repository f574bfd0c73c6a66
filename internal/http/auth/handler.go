package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/orderdesk/internal/auth"
	"github.com/MrJamesThe3rd/orderdesk/internal/http/respond"
	"github.com/MrJamesThe3rd/orderdesk/internal/user"
)

type Handler struct {
	users  *user.Service
	issuer *auth.Issuer
}

func NewHandler(users *user.Service, issuer *auth.Issuer) *Handler {
	return &Handler{users: users, issuer: issuer}
}

// Routes registers the public login route. Me must sit behind the issuer's middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type principalResponse struct {
	ID    uuid.UUID   `json:"id"`
	Name  string      `json:"name"`
	Role  user.Role   `json:"role"`
	Areas []user.Area `json:"areas"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      principalResponse `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	token, expires, err := h.issuer.Issue(u)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		User: principalResponse{
			ID:    u.ID,
			Name:  u.Name,
			Role:  u.Role,
			Areas: user.Areas(u.Role),
		},
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	respond.JSON(w, http.StatusOK, principalResponse{
		ID:    p.ID,
		Name:  p.Name,
		Role:  p.Role,
		Areas: user.Areas(p.Role),
	})
}
