package cache

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/observability/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "school:perm"
	DefaultTTL       = 5 * time.Minute

	invalidationRetryDelay = 50 * time.Millisecond
)

// Client is the subset of redis commands the cache issues. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// PermissionCache stores effective permission names per user under a global
// generation and a per-user version. Invalidation only ever bumps counters,
// so an entry written from a load that raced an invalidation lands on a key
// nobody reads again. Orphans expire by TTL.
type PermissionCache struct {
	client   Client
	prefix   string
	ttl      time.Duration
	recorder InvalidationRecorder
	logger   *slog.Logger
}

type InvalidationRecorder interface {
	RecordCacheInvalidation(scope, result string)
}

// Stamp identifies the cache keyspace observed before a load. Put writes
// under it, never under whatever is current at write time.
type Stamp struct {
	Generation string
	Version    string
}

func NewPermissionCache(client Client, prefix string, ttl time.Duration, logger *slog.Logger) *PermissionCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PermissionCache{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		recorder: (*metrics.AuthzMetrics)(nil),
		logger:   logger,
	}
}

// WithRecorder reports invalidation outcomes to r.
func (c *PermissionCache) WithRecorder(r InvalidationRecorder) *PermissionCache {
	if r != nil {
		c.recorder = r
	}
	return c
}

func (c *PermissionCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *PermissionCache) versionKey(userID string) string {
	return fmt.Sprintf("%s:ver:%s", c.prefix, userID)
}

func (c *PermissionCache) userKey(stamp Stamp, userID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.prefix, stamp.Generation, userID, stamp.Version)
}

func (c *PermissionCache) counter(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if stdErrors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (c *PermissionCache) stamp(ctx context.Context, userID string) (Stamp, error) {
	gen, err := c.counter(ctx, c.generationKey())
	if err != nil {
		return Stamp{}, err
	}
	ver, err := c.counter(ctx, c.versionKey(userID))
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{Generation: gen, Version: ver}, nil
}

// Get returns the cached names for userID and the stamp a subsequent Put
// must use. ok is false on a miss.
func (c *PermissionCache) Get(ctx context.Context, userID string) (names []string, stamp Stamp, ok bool, err error) {
	stamp, err = c.stamp(ctx, userID)
	if err != nil {
		return nil, Stamp{}, false, err
	}
	raw, err := c.client.Get(ctx, c.userKey(stamp, userID)).Bytes()
	if stdErrors.Is(err, redis.Nil) {
		return nil, stamp, false, nil
	}
	if err != nil {
		return nil, Stamp{}, false, err
	}
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, stamp, false, fmt.Errorf("decode cached permissions: %w", err)
	}
	return names, stamp, true, nil
}

// Put stores names under stamp, as returned by the Get that missed.
func (c *PermissionCache) Put(ctx context.Context, userID string, stamp Stamp, names []string) error {
	if names == nil {
		names = []string{}
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.userKey(stamp, userID), raw, c.ttl).Err()
}

// InvalidateUser moves one user to a new version.
func (c *PermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.client.Incr(ctx, c.versionKey(userID)).Err()
}

// InvalidateAll starts a new generation.
func (c *PermissionCache) InvalidateAll(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

type Subscriber interface {
	SubscribeAll(handler events.Handler, eventTypes ...string)
}

// Subscribe hooks invalidation to authorization change events. Handlers run
// inside PublishSync, so the entry is orphaned before the write returns.
func (c *PermissionCache) Subscribe(bus Subscriber) {
	bus.SubscribeAll(c.onUserEvent, events.UserScopedEvents...)
	bus.SubscribeAll(c.onWideEvent, events.RoleScopedEvents...)
}

func (c *PermissionCache) onUserEvent(ctx context.Context, event events.Event) error {
	userID, ok := events.UserIDOf(event)
	if !ok {
		return c.invalidate(ctx, "all", event, c.InvalidateAll)
	}
	return c.invalidate(ctx, "user", event, func(ctx context.Context) error {
		return c.InvalidateUser(ctx, userID)
	})
}

func (c *PermissionCache) onWideEvent(ctx context.Context, event events.Event) error {
	c.logger.Debug("permission cache generation bumped", "event_type", event.EventType())
	return c.invalidate(ctx, "all", event, c.InvalidateAll)
}

// invalidate retries once after a short pause. A final failure is recorded
// and returned to the publisher.
func (c *PermissionCache) invalidate(ctx context.Context, scope string, event events.Event, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		c.recorder.RecordCacheInvalidation(scope, "ok")
		return nil
	}
	c.logger.Warn("permission cache invalidation failed, retrying", "scope", scope, "event_type", event.EventType(), "error", err)

	select {
	case <-ctx.Done():
		c.recorder.RecordCacheInvalidation(scope, "failed")
		return stdErrors.Join(err, ctx.Err())
	case <-time.After(invalidationRetryDelay):
	}

	if err := fn(ctx); err != nil {
		c.recorder.RecordCacheInvalidation(scope, "failed")
		c.logger.Error("permission cache invalidation failed; entries stay stale until ttl",
			"scope", scope, "event_type", event.EventType(), "ttl", c.ttl, "error", err)
		return err
	}
	c.recorder.RecordCacheInvalidation(scope, "retried")
	return nil
}

type Loader interface {
	EffectivePermissions(ctx context.Context, userID string) (rbac.PermissionSet, error)
}

type LookupRecorder interface {
	RecordCacheLookup(result string)
}

// CachedResolver answers EffectivePermissions from the cache and falls back
// to the store on a miss or a cache failure.
type CachedResolver struct {
	cache    *PermissionCache
	next     Loader
	recorder LookupRecorder
	logger   *slog.Logger
}

func NewCachedResolver(cache *PermissionCache, next Loader, recorder LookupRecorder, logger *slog.Logger) *CachedResolver {
	if recorder == nil {
		recorder = (*metrics.AuthzMetrics)(nil)
	}
	return &CachedResolver{
		cache:    cache,
		next:     next,
		recorder: recorder,
		logger:   logger,
	}
}

func (r *CachedResolver) EffectivePermissions(ctx context.Context, userID string) (rbac.PermissionSet, error) {
	names, stamp, ok, err := r.cache.Get(ctx, userID)
	cacheable := err == nil
	switch {
	case err != nil:
		r.recorder.RecordCacheLookup("error")
		r.logger.Warn("permission cache read failed", "user_id", userID, "error", err)
	case ok:
		r.recorder.RecordCacheLookup("hit")
		return rbac.NewPermissionSet(names...), nil
	default:
		r.recorder.RecordCacheLookup("miss")
	}

	set, err := r.next.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return set, nil
	}
	if err := r.cache.Put(ctx, userID, stamp, set.Names()); err != nil {
		r.logger.Warn("permission cache write failed", "user_id", userID, "error", err)
	}
	return set, nil
}
