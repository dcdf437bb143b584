package seed

import (
	"context"
	"time"
)

// RetryStrategy decides how long to wait before retry attempt n (n >= 2;
// the first attempt never waits).
type RetryStrategy interface {
	Delay(attempt int) time.Duration
}

// FixedDelay waits the same interval before every retry.
type FixedDelay struct {
	Interval time.Duration
}

func (f FixedDelay) Delay(attempt int) time.Duration { return f.Interval }

// IncrementalDelay grows linearly: base, 2*base, 3*base, ...
type IncrementalDelay struct {
	Base time.Duration
}

func (d IncrementalDelay) Delay(attempt int) time.Duration {
	return d.Base * time.Duration(attempt-1)
}

// ExponentialBackoff doubles the delay per retry: base * 2^(attempt-2),
// capped at Max when Max is set.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := b.Base * (1 << uint(attempt-2))
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// sleep waits for d, returning early with the context error when the
// caller cancels.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
