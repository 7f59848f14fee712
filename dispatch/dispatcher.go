package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/store"
)

// Request carries everything an adapter needs to submit one application.
type Request struct {
	Job             *store.JobListing
	ResumePath      string
	CoverLetterPath string
}

// Adapter submits an application over one channel and returns a
// confirmation id on success.
type Adapter interface {
	Submit(ctx context.Context, req Request) (string, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, req Request) (string, error)

func (f AdapterFunc) Submit(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Outcome is the normalized result of a submission attempt.
type Outcome struct {
	Channel        Channel
	Success        bool
	ConfirmationID string
	Err            error
}

// Dispatcher routes submissions to channel adapters with per-channel
// pacing. It keeps no state about attempts; persistence is the caller's
// concern.
type Dispatcher struct {
	mu       sync.RWMutex
	adapters map[Channel]Adapter
	limiters map[Channel]*rate.Limiter

	timeout time.Duration
	pace    rate.Limit
	logger  *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher. adapterTimeout bounds each adapter
// call; requestsPerMinute paces calls per channel (<= 0 disables pacing).
func NewDispatcher(adapterTimeout time.Duration, requestsPerMinute float64, logger *zap.SugaredLogger) *Dispatcher {
	pace := rate.Inf
	if requestsPerMinute > 0 {
		pace = rate.Limit(requestsPerMinute / 60)
	}
	return &Dispatcher{
		adapters: make(map[Channel]Adapter),
		limiters: make(map[Channel]*rate.Limiter),
		timeout:  adapterTimeout,
		pace:     pace,
		logger:   logger,
	}
}

// RegisterAdapter installs the adapter for a channel, replacing any
// previous one.
func (d *Dispatcher) RegisterAdapter(ch Channel, adapter Adapter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adapters[ch] = adapter
	if _, ok := d.limiters[ch]; !ok {
		d.limiters[ch] = rate.NewLimiter(d.pace, 1)
	}
}

// Submit routes the request to the channel adapter matching the job's
// application URL and normalizes the result. Adapter errors are carried
// in the outcome, never returned.
func (d *Dispatcher) Submit(ctx context.Context, req Request) Outcome {
	url := req.Job.ApplicationURL
	if url == "" {
		url = req.Job.URL
	}
	ch := RouteChannel(url)

	d.mu.RLock()
	adapter, ok := d.adapters[ch]
	limiter := d.limiters[ch]
	d.mu.RUnlock()

	if !ok {
		return Outcome{
			Channel: ch,
			Err:     errors.Newf("no adapter registered for channel %s", ch),
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return Outcome{Channel: ch, Err: errors.Wrap(err, "rate limit wait")}
	}

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if d.logger != nil {
		d.logger.Debugw("Submitting application",
			"job_id", req.Job.ID,
			"channel", ch,
		)
	}

	confirmationID, err := adapter.Submit(callCtx, req)
	if err != nil {
		if d.logger != nil {
			d.logger.Warnw("Submission failed",
				"job_id", req.Job.ID,
				"channel", ch,
				"error", err,
			)
		}
		return Outcome{Channel: ch, Err: errors.Wrapf(err, "submit via %s", ch)}
	}

	return Outcome{Channel: ch, Success: true, ConfirmationID: confirmationID}
}
