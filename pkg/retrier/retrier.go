package retrier

import (
	"context"
	"time"
)

// Retrier runs an operation up to attempts times, doubling the wait
// between attempts up to maxInterval. It is used for one-shot startup
// operations such as the exchange time-sync handshake; periodic tasks do
// their own rescheduling and must not retry.
type Retrier struct {
	attempts    int
	interval    time.Duration
	maxInterval time.Duration
}

// New creates a retrier with the given attempt budget and initial wait.
func New(attempts int, interval, maxInterval time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{attempts: attempts, interval: interval, maxInterval: maxInterval}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	wait := r.interval

	var err error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > r.maxInterval {
				wait = r.maxInterval
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
