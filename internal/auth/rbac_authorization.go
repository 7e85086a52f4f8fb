package auth

import (
	"context"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/frahmantamala/school-admin/pkg/logger"
)

type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (rbac.Principal, error)
}

type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID string) (rbac.PermissionSet, error)
}

type PageResolver interface {
	HasPagePermission(ctx context.Context, userID, pageName string) (bool, error)
}

type DecisionRecorder interface {
	RecordDecision(check, outcome string)
}

// Check names used as metric labels.
const (
	checkAuthenticated    = "authenticated"
	checkPermission       = "permission"
	checkPage             = "page"
	checkAdmin            = "admin"
	checkAdminOrSecretary = "admin_or_secretary"
)

// Gate authorizes requests. Every decision is computed from the store at call
// time; the gate never writes.
type Gate struct {
	*transport.BaseHandler
	principals  PrincipalResolver
	permissions PermissionResolver
	pages       PageResolver
	recorder    DecisionRecorder
}

func NewGate(base *transport.BaseHandler, principals PrincipalResolver, permissions PermissionResolver, pages PageResolver, recorder DecisionRecorder) *Gate {
	if recorder == nil {
		recorder = (*metrics.AuthzMetrics)(nil)
	}
	return &Gate{
		BaseHandler: base,
		principals:  principals,
		permissions: permissions,
		pages:       pages,
		recorder:    recorder,
	}
}

// CheckPermission allows admin unconditionally, otherwise requires name in
// the principal's effective permission set.
func (g *Gate) CheckPermission(ctx context.Context, p rbac.Principal, name string) error {
	if rbac.IsAdminRole(p.RoleName) {
		return nil
	}
	set, err := g.permissions.EffectivePermissions(ctx, p.UserID)
	if err != nil {
		return resolverError(err)
	}
	if !set.Has(name) {
		return errors.ErrInsufficientPermission
	}
	return nil
}

// CheckPagePermission allows admin before consulting page grants.
func (g *Gate) CheckPagePermission(ctx context.Context, p rbac.Principal, pageName string) error {
	if rbac.IsAdminRole(p.RoleName) {
		return nil
	}
	ok, err := g.pages.HasPagePermission(ctx, p.UserID, pageName)
	if err != nil {
		return resolverError(err)
	}
	if !ok {
		return errors.ErrPageAccessDenied
	}
	return nil
}

func (g *Gate) CheckAdmin(_ context.Context, p rbac.Principal) error {
	if !p.IsAdmin() {
		return errors.ErrRoleRequired
	}
	return nil
}

func (g *Gate) CheckAdminOrSecretary(_ context.Context, p rbac.Principal) error {
	if !p.HasAnyRole(rbac.RoleAdmin, rbac.RoleSecretary) {
		return errors.ErrRoleRequired
	}
	return nil
}

// RequireAuthenticated resolves the bearer token into a principal and stores
// it in the request context. Nothing downstream runs without one.
func (g *Gate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.principals.ResolvePrincipal(r.Context(), transport.BearerToken(r))
		if err != nil {
			g.deny(w, r, checkAuthenticated, err)
			return
		}
		g.recorder.RecordDecision(checkAuthenticated, metrics.OutcomeAllow)

		ctx := rbac.WithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "userID", principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) RequirePermission(name string) func(http.Handler) http.Handler {
	return g.require(checkPermission, func(ctx context.Context, p rbac.Principal) error {
		return g.CheckPermission(ctx, p, name)
	})
}

func (g *Gate) RequirePagePermission(pageName string) func(http.Handler) http.Handler {
	return g.require(checkPage, func(ctx context.Context, p rbac.Principal) error {
		return g.CheckPagePermission(ctx, p, pageName)
	})
}

func (g *Gate) RequireAdmin() func(http.Handler) http.Handler {
	return g.require(checkAdmin, g.CheckAdmin)
}

func (g *Gate) RequireAdminOrSecretary() func(http.Handler) http.Handler {
	return g.require(checkAdminOrSecretary, g.CheckAdminOrSecretary)
}

func (g *Gate) require(check string, fn func(context.Context, rbac.Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := rbac.PrincipalFromContext(r.Context())
			if !ok {
				g.deny(w, r, check, errors.ErrMissingToken)
				return
			}
			if err := fn(r.Context(), principal); err != nil {
				g.deny(w, r, check, err)
				return
			}
			g.recorder.RecordDecision(check, metrics.OutcomeAllow)
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, check string, err error) {
	outcome := metrics.OutcomeError
	switch {
	case errors.IsType(err, errors.ErrorTypeUnauthorized):
		outcome = metrics.OutcomeUnauthenticated
	case errors.IsType(err, errors.ErrorTypeForbidden):
		outcome = metrics.OutcomeDeny
		if p, ok := rbac.PrincipalFromContext(r.Context()); ok {
			logger.From(r.Context()).Warn("access denied", slog.String("check", check), slog.String("user_id", p.UserID), slog.String("role", p.RoleName))
		}
	}
	g.recorder.RecordDecision(check, outcome)
	g.WriteAppError(w, r, err)
}

// resolverError keeps store failures as 500s. A user that vanished between
// authentication and the check is treated as unauthenticated.
func resolverError(err error) error {
	if errors.IsType(err, errors.ErrorTypeNotFound) {
		return errors.ErrInvalidToken
	}
	if _, ok := errors.IsAppError(err); ok {
		return err
	}
	return errors.NewInternalError("authorization check failed", err)
}
