package followup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/applyd/applyd/store"
)

// Sender delivers one due follow-up (an email, a reminder, a webhook).
type Sender interface {
	Send(ctx context.Context, detail store.FollowUpDetail) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, detail store.FollowUpDetail) error

func (f SenderFunc) Send(ctx context.Context, detail store.FollowUpDetail) error {
	return f(ctx, detail)
}

// Ticker periodically surfaces due follow-ups and hands them to a
// Sender. A send failure leaves the follow-up pending for the next
// tick; only sent follow-ups are marked complete.
type Ticker struct {
	scheduler     *Scheduler
	sender        Sender
	interval      time.Duration
	lookaheadDays int
	logger        *zap.SugaredLogger
}

// NewTicker creates a ticker polling at the given interval.
func NewTicker(scheduler *Scheduler, sender Sender, interval time.Duration, lookaheadDays int, logger *zap.SugaredLogger) *Ticker {
	return &Ticker{
		scheduler:     scheduler,
		sender:        sender,
		interval:      interval,
		lookaheadDays: lookaheadDays,
		logger:        logger,
	}
}

// Run processes due follow-ups once immediately, then on every tick
// until the context is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	t.processDue(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.processDue(ctx)
		}
	}
}

func (t *Ticker) processDue(ctx context.Context) {
	due, err := t.scheduler.Due(ctx, t.lookaheadDays)
	if err != nil {
		if t.logger != nil {
			t.logger.Errorw("Failed to load due follow-ups", "error", err)
		}
		return
	}

	for _, detail := range due {
		if ctx.Err() != nil {
			return
		}
		if err := t.sender.Send(ctx, detail); err != nil {
			if t.logger != nil {
				t.logger.Warnw("Follow-up send failed, will retry next tick",
					"follow_up_id", detail.ID,
					"application_id", detail.ApplicationID,
					"error", err,
				)
			}
			continue
		}
		if err := t.scheduler.Complete(ctx, detail.ID); err != nil {
			if t.logger != nil {
				t.logger.Errorw("Failed to mark follow-up complete",
					"follow_up_id", detail.ID,
					"error", err,
				)
			}
			continue
		}
		if t.logger != nil {
			t.logger.Infow("Follow-up sent",
				"follow_up_id", detail.ID,
				"job_id", detail.JobID,
				"company", detail.Company,
			)
		}
	}
}
