package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockClient is the part of the redis client the slot lock needs.
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseLockScript deletes the lock only while it still holds the caller's
// token, so an expired lock re-taken by another instance survives.
const releaseLockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type RedisCache struct {
	client      *redis.Client
	locks       lockClient
	settingsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, settingsTTL time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{
		client:      client,
		locks:       client,
		settingsTTL: settingsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetStoreSettings returns nil, nil on a cache miss.
func (c *RedisCache) GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error) {
	data, err := c.client.Get(ctx, storeSettingsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var settings domain.StoreSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *RedisCache) SetStoreSettings(ctx context.Context, settings *domain.StoreSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, storeSettingsKey(), payload, c.settingsTTL).Err()
}

func (c *RedisCache) InvalidateStoreSettings(ctx context.Context) error {
	return c.client.Del(ctx, storeSettingsKey()).Err()
}

// AcquireSlotLock takes a short-lived lock on one seller slot so concurrent
// creations for it serialize across instances. The returned token must be
// passed to ReleaseSlotLock.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, sellerID string, at time.Time, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.locks.SetNX(ctx, slotLockKey(sellerID, at), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseSlotLock drops the lock if it is still held with token.
func (c *RedisCache) ReleaseSlotLock(ctx context.Context, sellerID string, at time.Time, token string) error {
	return c.locks.Eval(ctx, releaseLockScript, []string{slotLockKey(sellerID, at)}, token).Err()
}

func storeSettingsKey() string {
	return "cache:store_settings"
}

func slotLockKey(sellerID string, at time.Time) string {
	return fmt.Sprintf("lock:seller:%s:slot:%d", sellerID, at.Unix())
}
