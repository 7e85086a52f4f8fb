package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListRoles(ctx context.Context) ([]*Role, error)
	GetRole(ctx context.Context, id string) (*Role, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error)
	DeleteRole(ctx context.Context, id string) error
	PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) ([]Permission, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolesResponse{Roles: roles})
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	rl, err := h.Service.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rl)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	rl, err := h.Service.CreateRole(r.Context(), req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, rl)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	rl, err := h.Service.UpdateRole(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rl)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRolePermissions 404s on an unknown role; the resolver itself would
// answer with an empty list.
func (h *Handler) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")
	if _, err := h.Service.GetRole(r.Context(), roleID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perms, err := h.Service.PermissionsForRole(r.Context(), roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolePermissionsResponse{RoleID: roleID, Permissions: perms})
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req SetRolePermissionsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	roleID := chi.URLParam(r, "id")
	perms, err := h.Service.SetRolePermissions(r.Context(), roleID, req.PermissionIDs)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolePermissionsResponse{RoleID: roleID, Permissions: perms})
}
