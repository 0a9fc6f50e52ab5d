package cmd

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/scribehq/scribe/pkg/lease"
	"github.com/scribehq/scribe/pkg/lease/local"
	"github.com/scribehq/scribe/pkg/lease/redis"
)

// NewLocker selects the per-thread lease implementation. An empty URL means
// the in-process locker, which is correct for a single engine instance; a
// redis:// URL enables serialization across instances.
func NewLocker(ctx context.Context, logger *slog.Logger, redisURL string) (lease.Locker, error) {
	if redisURL == "" {
		return local.NewLocker(), nil
	}

	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return redis.NewLocker(ctx, logger, opts.Addr, opts.Password, opts.DB)
}
