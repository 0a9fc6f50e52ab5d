package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/lease"
)

func TestLocker_TryAcquireHeld(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	release, err := locker.TryAcquire(ctx, "thread-1")
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, "thread-1")
	assert.ErrorIs(t, err, lease.ErrLeaseHeld)

	require.NoError(t, release(ctx))

	release, err = locker.TryAcquire(ctx, "thread-1")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestLocker_ThreadsAreIndependent(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	releaseA, err := locker.TryAcquire(ctx, "thread-a")
	require.NoError(t, err)

	releaseB, err := locker.TryAcquire(ctx, "thread-b")
	require.NoError(t, err)

	require.NoError(t, releaseA(ctx))
	require.NoError(t, releaseB(ctx))
}

func TestLocker_AcquireBlocksUntilReleased(t *testing.T) {
	locker := NewLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "thread-1")
	require.NoError(t, err)

	acquired := make(chan struct{})

	go func() {
		second, err := locker.Acquire(ctx, "thread-1")
		if err == nil {
			_ = second(ctx)
		}

		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lease was held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, release(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire did not proceed after release")
	}
}

func TestLocker_AcquireHonorsContext(t *testing.T) {
	locker := NewLocker()

	release, err := locker.Acquire(context.Background(), "thread-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "thread-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release(context.Background()))

	// The abandoned waiter hands the lease back; a later acquire succeeds.
	require.Eventually(t, func() bool {
		again, err := locker.TryAcquire(context.Background(), "thread-1")
		if err != nil {
			return false
		}

		_ = again(context.Background())

		return true
	}, time.Second, 10*time.Millisecond)
}
