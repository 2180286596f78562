package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a fixed-count, constant-delay retry policy for provider calls.
// The delay does not grow between attempts.
type Policy struct {
	Attempts uint64
	Delay    time.Duration
}

// DefaultPolicy retries three times with a one second pause.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Do runs op under the policy. It returns nil on the first success, or the
// last error once the attempt budget is exhausted or ctx is cancelled.
func (p Policy) Do(ctx context.Context, op func() error) error {
	// Attempts of zero would underflow the retry budget below.
	if p.Attempts == 0 {
		p.Attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), p.Attempts-1),
		ctx,
	)
	return backoff.Retry(op, b)
}
