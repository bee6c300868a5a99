// Package rediscache implements the service cache port on Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key the cache writes.
const DefaultKeyPrefix = "taskhub"

// DefaultTTL bounds how long a snapshot may outlive a missed invalidation.
const DefaultTTL = 5 * time.Minute

// Cache stores versioned JSON snapshots of users and tasks. Snapshots are
// rebuilt through the domain constructors, so a tampered entry reads as an
// error.
type Cache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ service.Cache = (*Cache)(nil)

// New creates a Cache on rdb. A zero ttl selects DefaultTTL and an empty
// prefix selects DefaultKeyPrefix.
func New(rdb redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_cache")),
	}, nil
}

// Dial connects to addr and verifies the server answers PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return rdb, nil
}

type userSnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type taskSnapshot struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Cache) userKey(id domain.ID) string { return c.prefix + ":user:" + id.String() }
func (c *Cache) taskKey(id domain.ID) string { return c.prefix + ":task:" + id.String() }

// Each key is a hash of the entry version "v" (UpdatedAt in Unix
// microseconds) and the JSON snapshot "d". An empty "d" is a tombstone: it
// reads as a miss but still holds the newest version written.

// removedVersion is recorded for deleted aggregates. It is the largest
// integer Lua numbers hold exactly, so no fill ever reaches it.
const removedVersion = "9007199254740991"

// fillScript stores a snapshot unless the key records a newer version.
// KEYS[1] = entry, ARGV[1] = version, ARGV[2] = JSON, ARGV[3] = ttl in ms
var fillScript = redis.NewScript(`
	local cur = redis.call('HGET', KEYS[1], 'v')
	if cur and tonumber(cur) > tonumber(ARGV[1]) then
		return 0
	end
	redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
`)

// invalidateScript replaces the entry with a tombstone holding the larger
// of the recorded version and ARGV[1].
// KEYS[1] = entry, ARGV[1] = version, ARGV[2] = ttl in ms
var invalidateScript = redis.NewScript(`
	local cur = redis.call('HGET', KEYS[1], 'v')
	local v = ARGV[1]
	if cur and tonumber(cur) > tonumber(v) then
		v = cur
	end
	redis.call('HSET', KEYS[1], 'v', v, 'd', '')
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
	return 1
`)

// GetUser implements service.Cache.GetUser
func (c *Cache) GetUser(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	var snap userSnapshot
	ok, err := c.get(ctx, c.userKey(id), &snap)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	u, err := domain.RestoreUser(snap.ID, snap.Name, snap.Email, snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("corrupt cached user %s: %v", id, err)
	}
	return u, true, nil
}

// SetUser implements service.Cache.SetUser
func (c *Cache) SetUser(ctx context.Context, user domain.User) error {
	return c.fill(ctx, c.userKey(user.ID), user.UpdatedAt, userSnapshot{
		ID:        user.ID.String(),
		Name:      user.Name.String(),
		Email:     user.Email.String(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// InvalidateUser implements service.Cache.InvalidateUser
func (c *Cache) InvalidateUser(ctx context.Context, user domain.User) error {
	return c.invalidate(ctx, version(user.UpdatedAt), c.userKey(user.ID))
}

// DeleteUsers implements service.Cache.DeleteUsers
func (c *Cache) DeleteUsers(ctx context.Context, ids ...domain.ID) error {
	return c.invalidate(ctx, removedVersion, keys(ids, c.userKey)...)
}

// GetTask implements service.Cache.GetTask
func (c *Cache) GetTask(ctx context.Context, id domain.ID) (domain.Task, bool, error) {
	var snap taskSnapshot
	ok, err := c.get(ctx, c.taskKey(id), &snap)
	if err != nil || !ok {
		return domain.Task{}, false, err
	}
	t, err := domain.RestoreTask(snap.ID, snap.UserID, snap.Name, snap.Description, snap.Status,
		snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("corrupt cached task %s: %v", id, err)
	}
	return t, true, nil
}

// SetTask implements service.Cache.SetTask
func (c *Cache) SetTask(ctx context.Context, task domain.Task) error {
	return c.fill(ctx, c.taskKey(task.ID), task.UpdatedAt, taskSnapshot{
		ID:          task.ID.String(),
		UserID:      task.UserID.String(),
		Name:        task.Name.String(),
		Description: task.Description,
		Status:      task.Status.String(),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	})
}

// InvalidateTask implements service.Cache.InvalidateTask
func (c *Cache) InvalidateTask(ctx context.Context, task domain.Task) error {
	return c.invalidate(ctx, version(task.UpdatedAt), c.taskKey(task.ID))
}

// DeleteTasks implements service.Cache.DeleteTasks
func (c *Cache) DeleteTasks(ctx context.Context, ids ...domain.ID) error {
	return c.invalidate(ctx, removedVersion, keys(ids, c.taskKey)...)
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.HGet(ctx, key, "d").Bytes()
	if errors.Is(err, redis.Nil) || (err == nil && len(raw) == 0) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) fill(ctx context.Context, key string, updatedAt time.Time, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	stored, err := fillScript.Run(ctx, c.rdb, []string{key},
		version(updatedAt), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis fill %s: %w", key, err)
	}
	if stored == 0 {
		c.logger.Debug("skipped stale cache fill", "key", key)
	}
	return nil
}

// invalidate runs once per key so every call touches a single hash slot.
func (c *Cache) invalidate(ctx context.Context, ver string, keys ...string) error {
	for _, key := range keys {
		if err := invalidateScript.Run(ctx, c.rdb, []string{key}, ver, c.ttl.Milliseconds()).Err(); err != nil {
			return fmt.Errorf("redis invalidate %s: %w", key, err)
		}
	}
	if len(keys) > 0 {
		c.logger.Debug("invalidated cache entries", "count", len(keys))
	}
	return nil
}

func version(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func keys(ids []domain.ID, key func(domain.ID) string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = key(id)
	}
	return out
}
