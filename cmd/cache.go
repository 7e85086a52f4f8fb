package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/school-admin/internal/cache"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/pkg/logger"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Effective-permission cache commands",
}

var invalidateUserID string

var invalidateCacheCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached effective permissions",
	Long: `Drop one user's cached effective permissions with --user, or start a new
cache generation for everyone. Use after editing grants directly in the database.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if !cfg.Cache.Enabled {
			fmt.Println("cache is disabled; nothing to invalidate")
			return
		}

		lg := logger.LoggerWrapper()
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			log.Fatalf("failed to connect to cache: %v", err)
		}
		defer rdb.Close()

		bus := events.NewEventBus(lg)
		cache.NewPermissionCache(rdb, cfg.Cache.KeyPrefix, cfg.Cache.TTL, lg).Subscribe(bus)

		event := events.NewRoleEvent(events.RoleChanged, "")
		if invalidateUserID != "" {
			event = events.NewUserEvent(events.UserOverridesChanged, invalidateUserID)
		}
		if err := bus.PublishSync(ctx, event); err != nil {
			log.Fatalf("invalidation failed: %v", err)
		}
		lg.Info("permission cache invalidated", "event_type", event.EventType(), "user_id", invalidateUserID)
	},
}

func init() {
	invalidateCacheCmd.Flags().StringVar(&invalidateUserID, "user", "", "only drop this user's entry")
	cacheCmd.AddCommand(invalidateCacheCmd)
}
