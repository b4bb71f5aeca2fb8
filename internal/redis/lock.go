package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cabshare/internal/repository"
)

const (
	tableLockPrefix   = "lock:table:"
	defaultLockTTL    = 10 * time.Second
	defaultLockWait   = 5 * time.Second
	lockRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles cross-process table locking in Redis.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLockStore creates a new LockStore. Zero durations fall back to defaults.
func NewLockStore(client *redis.Client, ttl, wait time.Duration) *LockStore {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &LockStore{client: client, ttl: ttl, wait: wait}
}

// AcquireTableLock attempts to acquire the lock for table once.
// It returns the owner token when the lock was acquired.
func (s *LockStore) AcquireTableLock(ctx context.Context, table string) (string, bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, tableLockPrefix+table, token, s.ttl).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

// ReleaseTableLock releases the lock for table if token still owns it.
func (s *LockStore) ReleaseTableLock(ctx context.Context, table, token string) error {
	return releaseScript.Run(ctx, s.client, []string{tableLockPrefix + table}, token).Err()
}

// Lock retries AcquireTableLock until it succeeds, the wait budget runs out,
// or ctx is done.
func (s *LockStore) Lock(ctx context.Context, table string) (func(), error) {
	deadline := time.Now().Add(s.wait)

	for {
		token, ok, err := s.AcquireTableLock(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("redis.Lock %s: %w", table, err)
		}
		if ok {
			return func() {
				_ = s.ReleaseTableLock(context.Background(), table, token)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("redis.Lock %s: %w", table, repository.ErrLockNotAcquired)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
