package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how sheet sync failures are rescheduled: geometric
// backoff from InitialDelay, capped at MaxDelay, until MaxRetries attempts
// have been burned.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Exhausted reports whether the attempt (1-based) has used up the budget.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextDelay returns the backoff before the given attempt (1-based).
// Degenerate policy values fall back to a one-second base with factor 2.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := r.InitialDelay
	if base <= 0 {
		base = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(base) * math.Pow(factor, float64(attempt-1)))
	switch {
	case r.MaxDelay > 0 && d > r.MaxDelay:
		return r.MaxDelay
	case d <= 0:
		// overflow on absurd attempt counts
		return base
	}
	return d
}

// NextRetryAt is NextDelay anchored to a wall-clock moment.
func (r RetryPolicy) NextRetryAt(now time.Time, attempt int) time.Time {
	return now.Add(r.NextDelay(attempt))
}
