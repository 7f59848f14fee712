// Package followup schedules and surfaces post-submission follow-ups.
package followup

import (
	"context"
	"time"

	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/store"
)

// Store is the persistence surface the scheduler needs.
type Store interface {
	InsertFollowUp(ctx context.Context, rec *store.FollowUpRecord) error
	MarkFollowUpComplete(ctx context.Context, id int64, completedAt time.Time) error
	DueFollowUps(ctx context.Context, windowStart, windowEnd time.Time) ([]store.FollowUpDetail, error)
}

// Scheduler creates follow-up reminders a fixed number of days after a
// submission and surfaces the ones that are due.
type Scheduler struct {
	store Store
	now   func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler backed by the given store.
func NewScheduler(st Store, opts ...Option) *Scheduler {
	s := &Scheduler{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records a follow-up due delayDays after baseDate. Day
// arithmetic is calendar-aware, so month and year boundaries roll over
// correctly.
func (s *Scheduler) Schedule(ctx context.Context, applicationID int64, baseDate time.Time, delayDays int) (*store.FollowUpRecord, error) {
	if delayDays < 0 {
		return nil, errors.Newf("delay days cannot be negative: %d", delayDays)
	}

	rec := &store.FollowUpRecord{
		ApplicationID: applicationID,
		DueDate:       baseDate.UTC().AddDate(0, 0, delayDays),
	}
	if err := s.store.InsertFollowUp(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Due returns pending follow-ups due between today and the end of the
// lookahead window, ordered by due date.
func (s *Scheduler) Due(ctx context.Context, lookaheadDays int) ([]store.FollowUpDetail, error) {
	windowStart := s.now().UTC()
	windowEnd := windowStart.AddDate(0, 0, lookaheadDays)
	return s.store.DueFollowUps(ctx, windowStart, windowEnd)
}

// Complete marks a follow-up done. Completing twice is a no-op.
func (s *Scheduler) Complete(ctx context.Context, id int64) error {
	return s.store.MarkFollowUpComplete(ctx, id, s.now())
}
