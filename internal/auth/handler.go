package auth

import (
	"context"
	"net/http"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/transport"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
}

// AllowedPagesResolver lists the pages a user may open.
type AllowedPagesResolver interface {
	AllowedPages(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service     ServiceAPI
	Permissions PermissionResolver
	Pages       AllowedPagesResolver
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, permissions PermissionResolver, pages AllowedPagesResolver) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Permissions: permissions,
		Pages:       pages,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, errors.ErrMissingToken)
		return
	}

	perms, err := h.effectivePermissions(r.Context(), principal)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	pages, err := h.Pages.AllowedPages(r.Context(), principal.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MeResponse{
		UserID:               principal.UserID,
		Email:                principal.Email,
		RoleID:               principal.RoleID,
		RoleName:             principal.RoleName,
		EffectivePermissions: perms,
		AllowedPages:         pages,
	})
}

// EffectivePermissions handles GET /auth/effective-permissions
func (h *Handler) EffectivePermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, errors.ErrMissingToken)
		return
	}
	perms, err := h.effectivePermissions(r.Context(), principal)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

// AllowedPages handles GET /auth/allowed-pages
func (h *Handler) AllowedPages(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, errors.ErrMissingToken)
		return
	}
	pages, err := h.Pages.AllowedPages(r.Context(), principal.UserID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PagesResponse{Pages: pages})
}

// effectivePermissions reports the stored set, which for admin may be a
// subset of what the gate allows.
func (h *Handler) effectivePermissions(ctx context.Context, p rbac.Principal) ([]string, error) {
	set, err := h.Permissions.EffectivePermissions(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}
