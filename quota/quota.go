// Package quota enforces the daily submission limit. Only confirmed
// successful submissions consume quota; in-flight attempts hold a
// reservation so concurrent submissions can never jointly exceed the
// limit.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/applyd/applyd/errors"
)

// Counter reports how many successful submissions a civil day has seen.
type Counter interface {
	CountSuccessfulApplications(ctx context.Context, day time.Time) (int, error)
}

// Limiter hands out at most dailyLimit submission slots per day.
type Limiter struct {
	counter    Counter
	dailyLimit int
	now        func() time.Time

	mu       sync.Mutex
	reserved map[string]int // civil day -> in-flight reservations
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// NewLimiter creates a limiter backed by the given counter.
func NewLimiter(counter Counter, dailyLimit int, opts ...Option) *Limiter {
	l := &Limiter{
		counter:    counter,
		dailyLimit: dailyLimit,
		now:        time.Now,
		reserved:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MayAttempt reports whether a submission slot is available right now.
// Advisory only; Acquire is the authoritative check.
func (l *Limiter) MayAttempt(ctx context.Context) (bool, error) {
	day := l.now().UTC()
	key := day.Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()

	used, err := l.used(ctx, day, key)
	if err != nil {
		return false, err
	}
	return used < l.dailyLimit, nil
}

// Acquire reserves a submission slot for today. The returned release
// func must be called once the submission outcome is persisted (or the
// attempt abandoned); releasing is idempotent. Returns ErrQuotaExceeded
// when today's limit is already spoken for.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	day := l.now().UTC()
	key := day.Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()

	used, err := l.used(ctx, day, key)
	if err != nil {
		return nil, err
	}
	if used >= l.dailyLimit {
		return nil, errors.Wrapf(errors.ErrQuotaExceeded,
			"daily limit %d reached for %s", l.dailyLimit, key)
	}

	l.reserved[key]++

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.reserved[key] > 0 {
				l.reserved[key]--
			}
			if l.reserved[key] == 0 {
				delete(l.reserved, key)
			}
		})
	}, nil
}

// used counts confirmed successes plus in-flight reservations.
// Caller holds l.mu.
func (l *Limiter) used(ctx context.Context, day time.Time, key string) (int, error) {
	count, err := l.counter.CountSuccessfulApplications(ctx, day)
	if err != nil {
		return 0, errors.Wrap(err, "count submissions")
	}
	return count + l.reserved[key], nil
}
