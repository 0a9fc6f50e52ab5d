// Package local provides an in-process per-thread lease for single-instance
// deployments and tests.
package local

import (
	"context"
	"sync"

	"github.com/scribehq/scribe/pkg/lease"
)

// Locker implements lease.Locker with one mutex per thread ID.
type Locker struct {
	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{threads: make(map[string]*sync.Mutex)}
}

func (l *Locker) threadMutex(threadID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.threads[threadID]
	if !ok {
		m = &sync.Mutex{}
		l.threads[threadID] = m
	}

	return m
}

// Acquire blocks until the thread's lease is granted or ctx is done.
func (l *Locker) Acquire(ctx context.Context, threadID string) (lease.ReleaseFunc, error) {
	m := l.threadMutex(threadID)

	acquired := make(chan struct{})

	go func() {
		m.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func(context.Context) error {
			m.Unlock()

			return nil
		}, nil
	case <-ctx.Done():
		// The goroutine will eventually take the mutex; hand it straight back.
		go func() {
			<-acquired
			m.Unlock()
		}()

		return nil, ctx.Err()
	}
}

// TryAcquire fails fast with lease.ErrLeaseHeld when the lease is taken.
func (l *Locker) TryAcquire(_ context.Context, threadID string) (lease.ReleaseFunc, error) {
	m := l.threadMutex(threadID)

	if !m.TryLock() {
		return nil, lease.ErrLeaseHeld
	}

	return func(context.Context) error {
		m.Unlock()

		return nil
	}, nil
}
