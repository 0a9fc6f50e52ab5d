package workflow

import (
	"math/rand/v2"
	"time"
)

const (
	backoffBase   = time.Second
	backoffJitter = time.Second
	backoffCap    = 10 * time.Second
)

// backoffDelay computes the sleep before re-running a node: exponential in
// the retry count, plus up to one second of uniform jitter, capped at ten
// seconds.
func backoffDelay(retryCount int) time.Duration {
	if retryCount < 0 || retryCount > 30 {
		return backoffCap
	}

	delay := backoffBase << uint(retryCount)
	if delay <= 0 || delay >= backoffCap {
		return backoffCap
	}

	delay += time.Duration(rand.Int64N(int64(backoffJitter)))
	if delay > backoffCap {
		delay = backoffCap
	}

	return delay
}
