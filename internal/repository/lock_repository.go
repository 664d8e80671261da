package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockRepository hands out Redis advisory locks. Without a client every lock is granted.
type LockRepository struct {
	client *redis.Client
	prefix string
}

// NewLockRepository constructs a lock repository whose keys start with prefix.
func NewLockRepository(client *redis.Client, prefix string) *LockRepository {
	return &LockRepository{client: client, prefix: prefix}
}

// Acquire takes the lock named key for ttl. It returns appErrors.ErrLockHeld when
// another holder owns it. The returned func releases the lock and is always non-nil on success.
func (r *LockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if r == nil || r.client == nil {
		return func(context.Context) error { return nil }, nil
	}

	full := r.prefix + key
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", full, err)
	}
	if !ok {
		return nil, appErrors.ErrLockHeld
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{full}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release lock %s: %w", full, err)
		}
		return nil
	}, nil
}
