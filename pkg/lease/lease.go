// Package lease serializes concurrent execute/resume calls on a single
// workflow thread. Distinct threads are fully independent; within one thread
// only one engine call may be logically active at a time.
package lease

import (
	"context"
	"errors"
	"time"
)

// ErrLeaseHeld indicates another call currently holds the thread's lease.
var ErrLeaseHeld = errors.New("thread lease already held")

// DefaultTTL bounds how long a crashed holder can block a thread.
const DefaultTTL = 10 * time.Minute

// ReleaseFunc releases an acquired lease.
type ReleaseFunc func(ctx context.Context) error

// Locker grants per-thread leases. Acquire blocks until the lease is granted
// or ctx is done; TryAcquire fails fast with ErrLeaseHeld.
type Locker interface {
	Acquire(ctx context.Context, threadID string) (ReleaseFunc, error)
	TryAcquire(ctx context.Context, threadID string) (ReleaseFunc, error)
}
