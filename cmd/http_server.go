package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/cache"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/frahmantamala/school-admin/internal/transport/rest"
	"github.com/frahmantamala/school-admin/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Bus      *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) *application {
	checks := map[string]rest.Checker{"postgres": deps.DB.DB}
	var permCache *cache.PermissionCache
	if deps.Redis != nil {
		rdb := deps.Redis
		checks["redis"] = rest.CheckFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		permCache = cache.NewPermissionCache(rdb, deps.Config.Cache.KeyPrefix, deps.Config.Cache.TTL, deps.Logger)
	}

	app := newApplication(appDeps{
		Gorm:      deps.Gorm,
		SQLX:      deps.DB,
		Security:  deps.Config.Security,
		Bus:       deps.Bus,
		Registry:  deps.Registry,
		PermCache: permCache,
		Checks:    checks,
		Logger:    deps.Logger,
	})

	rest.RegisterAllRoutes(deps.Router, app.Handlers, rest.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		Registry:       deps.Registry,
		MetricsPath:    deps.Config.Observability.Metrics.Path,
	}, deps.Logger)
	return app
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Setup(logger.Options{
		Format: config.Observability.Logging.Format,
		Level:  config.Observability.Logging.Level,
	})

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := openGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Gorm:   gormDB,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
	}

	if config.Observability.Metrics.Enabled {
		deps.Registry = metrics.NewRegistry()
	}

	if config.Cache.Enabled {
		rdb, err := cache.NewRedisClient(ctx, config.Cache)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		deps.Redis = rdb
	}

	return deps, nil
}

// Close releases the database and cache connections.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm shares the sqlx pool with gorm so both see one set of connections.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
