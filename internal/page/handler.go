package page

import (
	"context"
	"net/http"

	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	AllowedPagesForRole(ctx context.Context, roleID string) ([]string, error)
	GetRolePagePermissions(ctx context.Context, roleID string) ([]RolePageAccess, error)
	SetRolePagePermissions(ctx context.Context, roleID string, inputs []PagePermissionInput) ([]RolePageAccess, error)
	ListPages(ctx context.Context) ([]*Page, error)
	DeletePage(ctx context.Context, id string) error
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

// GetRolePages handles GET /roles/{id}/pages
func (h *Handler) GetRolePages(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")
	pages, err := h.Service.GetRolePagePermissions(r.Context(), roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolePagesResponse{RoleID: roleID, Pages: pages})
}

// SetRolePages handles PUT /roles/{id}/pages
func (h *Handler) SetRolePages(w http.ResponseWriter, r *http.Request) {
	var req SetRolePagesRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	roleID := chi.URLParam(r, "id")
	pages, err := h.Service.SetRolePagePermissions(r.Context(), roleID, req.PagePermissions)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolePagesResponse{RoleID: roleID, Pages: pages})
}

// GetRoleAllowedPages handles GET /roles/{id}/allowed-pages
func (h *Handler) GetRoleAllowedPages(w http.ResponseWriter, r *http.Request) {
	names, err := h.Service.AllowedPagesForRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AllowedPagesResponse{Pages: names})
}

func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.Service.ListPages(r.Context())
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PagesResponse{Pages: pages})
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
