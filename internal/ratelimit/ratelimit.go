package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces batch work. It is safe for concurrent use by workers.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows perSecond events per second with a burst of one. Zero or a
// negative rate disables limiting.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Wait blocks until the next event may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Limit returns the configured rate, 0 when unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
