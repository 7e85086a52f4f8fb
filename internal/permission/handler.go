package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetUserPermissionView(ctx context.Context, userID string) (*UserPermissionView, error)
	SetUserPermissionOverrides(ctx context.Context, userID string, inputs []OverrideInput) ([]Override, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	DeletePermission(ctx context.Context, id string) error
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

// GetUserPermissions handles GET /users/{id}/permissions
func (h *Handler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetUserPermissionView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

// SetUserPermissions handles PUT /users/{id}/permissions
func (h *Handler) SetUserPermissions(w http.ResponseWriter, r *http.Request) {
	var req SetOverridesRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	userID := chi.URLParam(r, "id")
	if _, err := h.Service.SetUserPermissionOverrides(r.Context(), userID, req.Overrides); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	view, err := h.Service.GetUserPermissionView(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Service.ListCategories(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
