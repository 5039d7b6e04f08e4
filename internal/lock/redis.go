package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix префикс ключей блокировок в Redis
const DefaultKeyPrefix = "smm-panel:lock:"

// releaseScript удаляет ключ, только если в нём токен владельца
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка через SET NX в Redis, общая для нескольких экземпляров
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisLocker создает новый RedisLocker
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix}
}

// Acquire реализует Locker
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, bool, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, r.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock: failed to acquire %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return &Lease{key: key, token: token, release: r.release}, true, nil
}

func (r *RedisLocker) release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.keyPrefix + key}, token).Int()
	if err != nil {
		return fmt.Errorf("lock: failed to release %q: %w", key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// Ping проверяет соединение с Redis
func (r *RedisLocker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает клиент Redis
func (r *RedisLocker) Close() error {
	return r.client.Close()
}
