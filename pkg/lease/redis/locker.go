// Package redis provides a Redis-backed per-thread lease for deployments
// running more than one engine instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/scribehq/scribe/pkg/lease"
)

const acquirePollInterval = 100 * time.Millisecond

// Locker implements lease.Locker with SET NX PX keys, one per thread.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewLocker connects to Redis and returns a ready locker.
func NewLocker(ctx context.Context, logger *slog.Logger, addr, password string, db int) (*Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", db)

	return &Locker{
		client: client,
		ttl:    lease.DefaultTTL,
		logger: logger.With("module", "redis_lease"),
	}, nil
}

func leaseKey(threadID string) string {
	return "scribe:lease:" + threadID
}

// TryAcquire fails fast with lease.ErrLeaseHeld when the lease is taken.
func (l *Locker) TryAcquire(ctx context.Context, threadID string) (lease.ReleaseFunc, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, leaseKey(threadID), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease for thread %s: %w", threadID, err)
	}

	if !ok {
		return nil, lease.ErrLeaseHeld
	}

	return l.releaseFunc(threadID, token), nil
}

// Acquire polls until the lease is granted or ctx is done.
func (l *Locker) Acquire(ctx context.Context, threadID string) (lease.ReleaseFunc, error) {
	for {
		release, err := l.TryAcquire(ctx, threadID)
		if err == nil {
			return release, nil
		}

		if !errors.Is(err, lease.ErrLeaseHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}
}

// releaseFunc deletes the lease key only if this holder still owns it, so a
// holder that outlived its TTL cannot release a successor's lease.
func (l *Locker) releaseFunc(threadID, token string) lease.ReleaseFunc {
	releaseScript := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{leaseKey(threadID)}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lease for thread %s: %w", threadID, err)
		}

		return nil
	}
}

// Close closes the underlying Redis client.
func (l *Locker) Close() error {
	return l.client.Close()
}
