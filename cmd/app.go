package cmd

import (
	"log/slog"

	"github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/auth"
	"github.com/frahmantamala/school-admin/internal/bootstrap"
	"github.com/frahmantamala/school-admin/internal/cache"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/frahmantamala/school-admin/internal/page"
	pagePostgres "github.com/frahmantamala/school-admin/internal/page/postgres"
	"github.com/frahmantamala/school-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/school-admin/internal/permission/postgres"
	"github.com/frahmantamala/school-admin/internal/role"
	rolePostgres "github.com/frahmantamala/school-admin/internal/role/postgres"
	"github.com/frahmantamala/school-admin/internal/transport"
	"github.com/frahmantamala/school-admin/internal/transport/rest"
	"github.com/frahmantamala/school-admin/internal/user"
	userPostgres "github.com/frahmantamala/school-admin/internal/user/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// application holds the wired services and handlers of one process.
type application struct {
	Roles       *role.Service
	Users       *user.Service
	Permissions *permission.Service
	Pages       *page.Service
	Auth        *auth.Service
	Seeder      *bootstrap.Seeder
	Handlers    rest.Handlers
}

type appDeps struct {
	Gorm     *gorm.DB
	SQLX     *sqlx.DB
	Security internal.SecurityConfig
	Bus      *events.EventBus
	// Registry and PermCache are optional.
	Registry  *prometheus.Registry
	PermCache *cache.PermissionCache
	Checks    map[string]rest.Checker
	Logger    *slog.Logger
}

func newApplication(d appDeps) *application {
	var authzMetrics *metrics.AuthzMetrics
	if d.Registry != nil {
		authzMetrics = metrics.NewAuthzMetrics(d.Registry)
	}

	roleService := role.NewService(rolePostgres.NewRoleRepository(d.Gorm), d.Bus, d.Logger)
	userService := user.NewService(userPostgres.NewUserRepository(d.SQLX), roleService, d.Bus, d.Security.BCryptCost, d.Logger)
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(d.Gorm), userService, roleService, d.Bus, d.Logger)
	pageService := page.NewService(pagePostgres.NewPageRepository(d.Gorm), userService, roleService, d.Bus, d.Logger)

	tokenGen := auth.NewJWTTokenGenerator(d.Security.JWTSecret, d.Security.AccessTokenDuration, d.Security.RefreshTokenDuration)
	authService := auth.NewService(userService, tokenGen, d.Logger)

	var resolver auth.PermissionResolver = permissionService
	if d.PermCache != nil {
		if authzMetrics != nil {
			d.PermCache.WithRecorder(authzMetrics)
		}
		d.PermCache.Subscribe(d.Bus)
		resolver = cache.NewCachedResolver(d.PermCache, permissionService, authzMetrics, d.Logger)
	}

	base := transport.NewBaseHandler(d.Logger)
	gate := auth.NewGate(base, authService, resolver, pageService, authzMetrics)

	return &application{
		Roles:       roleService,
		Users:       userService,
		Permissions: permissionService,
		Pages:       pageService,
		Auth:        authService,
		Seeder:      bootstrap.NewSeeder(permissionService, pageService, roleService, userService, d.Logger),
		Handlers: rest.Handlers{
			Auth:       auth.NewHandler(base, authService, resolver, pageService),
			Gate:       gate,
			Roles:      role.NewHandler(base, roleService),
			Users:      user.NewHandler(base, userService),
			Permission: permission.NewHandler(base, permissionService),
			Pages:      page.NewHandler(base, pageService),
			Health:     rest.NewHealthHandler(base, d.Checks),
		},
	}
}
