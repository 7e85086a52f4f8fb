package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/school-admin/internal/auth"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/frahmantamala/school-admin/internal/page"
	"github.com/frahmantamala/school-admin/internal/permission"
	"github.com/frahmantamala/school-admin/internal/role"
	"github.com/frahmantamala/school-admin/internal/transport/middleware"
	"github.com/frahmantamala/school-admin/internal/transport/swagger"
	"github.com/frahmantamala/school-admin/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Gate       *auth.Gate
	Roles      *role.Handler
	Users      *user.Handler
	Permission *permission.Handler
	Pages      *page.Handler
	Health     *HealthHandler
}

type Options struct {
	AllowedOrigins string
	// Registry enables /metrics and HTTP metrics when non-nil.
	Registry    *prometheus.Registry
	MetricsPath string
	OpenAPIFile string
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	if opts.Registry != nil {
		router.Use(metrics.HTTPMiddleware(opts.Registry))
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, metrics.Handler(opts.Registry))
	}

	openAPIFile := opts.OpenAPIFile
	if openAPIFile == "" {
		openAPIFile = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openAPIFile)
	})
	router.Handle("/swagger/*", swagger.Handler())

	gate := h.Gate
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Group(func(pr chi.Router) {
				pr.Use(gate.RequireAuthenticated)
				pr.Get("/me", h.Auth.Me)
				pr.Get("/effective-permissions", h.Auth.EffectivePermissions)
				pr.Get("/allowed-pages", h.Auth.AllowedPages)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(gate.RequireAuthenticated)

			pr.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.Roles.ListRoles)
				rr.With(gate.RequireAdmin()).Post("/", h.Roles.CreateRole)
				rr.Route("/{id}", func(ir chi.Router) {
					ir.Get("/", h.Roles.GetRole)
					ir.With(gate.RequireAdmin()).Put("/", h.Roles.UpdateRole)
					ir.With(gate.RequireAdmin()).Delete("/", h.Roles.DeleteRole)

					ir.Get("/permissions", h.Roles.GetRolePermissions)
					ir.With(gate.RequireAdmin()).Put("/permissions", h.Roles.SetRolePermissions)

					ir.Get("/pages", h.Pages.GetRolePages)
					ir.With(gate.RequireAdmin()).Put("/pages", h.Pages.SetRolePages)
					ir.Get("/allowed-pages", h.Pages.GetRoleAllowedPages)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.Users.GetCurrentUser)
				ur.With(gate.RequirePermission(rbac.UsersRead), gate.RequirePagePermission("users")).Get("/", h.Users.ListUsers)
				ur.With(gate.RequireAdminOrSecretary()).Post("/", h.Users.CreateUser)
				ur.With(gate.RequireAdmin()).Put("/{id}/role", h.Users.AssignRole)

				ur.Group(func(mr chi.Router) {
					mr.Use(gate.RequirePermission(rbac.PermissionManage))
					mr.Get("/{id}/permissions", h.Permission.GetUserPermissions)
					mr.Put("/{id}/permissions", h.Permission.SetUserPermissions)
				})
			})

			pr.Get("/permissions", h.Permission.ListPermissions)
			pr.Get("/permission-categories", h.Permission.ListCategories)
			pr.With(gate.RequireAdmin()).Delete("/permissions/{id}", h.Permission.DeletePermission)

			pr.Get("/pages", h.Pages.ListPages)
			pr.With(gate.RequireAdmin()).Delete("/pages/{id}", h.Pages.DeletePage)
		})
	})
}
