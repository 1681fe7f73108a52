package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/findthemapp/findthem-core/internal/config"
)

// AlertWindow is the trailing window during which a repeated location alert
// from the same sender to the same recipient is suppressed.
const AlertWindow = 5 * time.Minute

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewFromClient wraps an existing client (tests use miniredis here).
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForAlertWindow generates the dedup key for a sender→recipient alert pair.
func (c *RedisCache) KeyForAlertWindow(senderID, recipientID uint64) string {
	return fmt.Sprintf("alerts:window:%d:%d", senderID, recipientID)
}

// MarkAlertWindow opens the dedup window for a sender→recipient pair.
// Returns true when no window was open (the alert should be delivered) and
// false when a recent alert already claimed the window.
func (c *RedisCache) MarkAlertWindow(ctx context.Context, senderID, recipientID uint64) (bool, error) {
	key := c.KeyForAlertWindow(senderID, recipientID)
	return c.Client.SetNX(ctx, key, 1, AlertWindow).Result()
}

// KeyForUnreadCount generates Redis key for a user's unread notification count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// IncrUnreadCount bumps the unread counter after a record is written.
// Best-effort: the notification table is authoritative, the counter only
// saves the inbox badge a COUNT query.
func (c *RedisCache) IncrUnreadCount(ctx context.Context, userID uint64) error {
	key := c.KeyForUnreadCount(userID)
	if err := c.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, time.Hour).Err()
}

// GetUnreadCount reads the cached unread counter. A miss returns (0, false, nil).
func (c *RedisCache) GetUnreadCount(ctx context.Context, userID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForUnreadCount(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetUnreadCount refreshes the counter from the database value.
func (c *RedisCache) SetUnreadCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForUnreadCount(userID), count, time.Hour).Err()
}

// ResetUnreadCount drops the counter, forcing the next read through the DB.
func (c *RedisCache) ResetUnreadCount(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForUnreadCount(userID)).Err()
}
