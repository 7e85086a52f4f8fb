package user

import (
	"context"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, error)
	CreateUserAs(ctx context.Context, actor rbac.Principal, req CreateUserRequest) (*User, error)
	AssignRole(ctx context.Context, userID string, roleID *string) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, errors.ErrMissingToken)
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users?limit=&offset=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := NormalizePage(queryInt(r, "limit", DefaultListLimit), queryInt(r, "offset", 0))

	users, err := h.Service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: users, Limit: limit, Offset: offset})
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, errors.ErrMissingToken)
		return
	}

	var req CreateUserRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.CreateUserAs(r.Context(), principal, req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

// AssignRole handles PUT /users/{id}/role
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.AssignRole(r.Context(), chi.URLParam(r, "id"), req.RoleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
