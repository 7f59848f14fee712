package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applyd/applyd/dispatch"
	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/followup"
	"github.com/applyd/applyd/quota"
	"github.com/applyd/applyd/store"
)

// OutcomeKind classifies what happened to one job during a run.
type OutcomeKind string

const (
	OutcomeFilteredOut OutcomeKind = "filtered_out"
	OutcomeDeferred    OutcomeKind = "deferred"
	OutcomeDuplicate   OutcomeKind = "duplicate"
	OutcomePrepared    OutcomeKind = "prepared"
	OutcomeSubmitted   OutcomeKind = "submitted"
	OutcomeFailed      OutcomeKind = "failed"
)

// JobResult is the per-job outcome of a pipeline run.
type JobResult struct {
	JobID  string
	Kind   OutcomeKind
	Reason string
	Err    error
}

// Report summarizes one pipeline run.
type Report struct {
	RunID       string
	Submitted   int
	Prepared    int
	Failed      int
	Deferred    int
	FilteredOut int
	Duplicates  int
	Results     []JobResult
}

func (r *Report) add(res JobResult) {
	r.Results = append(r.Results, res)
	switch res.Kind {
	case OutcomeSubmitted:
		r.Submitted++
	case OutcomePrepared:
		r.Prepared++
	case OutcomeFailed:
		r.Failed++
	case OutcomeDeferred:
		r.Deferred++
	case OutcomeFilteredOut:
		r.FilteredOut++
	case OutcomeDuplicate:
		r.Duplicates++
	}
}

// Tailor produces the resume and cover letter for one listing.
type Tailor interface {
	Tailor(ctx context.Context, job *store.JobListing) (resumePath, coverLetterPath string, err error)
}

// TailorFunc adapts a function to the Tailor interface.
type TailorFunc func(ctx context.Context, job *store.JobListing) (string, string, error)

func (f TailorFunc) Tailor(ctx context.Context, job *store.JobListing) (string, string, error) {
	return f(ctx, job)
}

// Options tune a pipeline run.
type Options struct {
	// AutoSubmit gates actual submission; when false the run stops
	// after tailoring and reports the job as prepared.
	AutoSubmit        bool
	FollowUpEnabled   bool
	FollowUpDelayDays int
	TailorTimeout     time.Duration
	Workers           int
}

// Orchestrator drives listings through filter, tailor, submit and
// follow-up. Per-job failures are absorbed into the report; only a
// referential integrity violation aborts a run.
type Orchestrator struct {
	store      *store.Store
	quota      *quota.Limiter
	dispatcher *dispatch.Dispatcher
	scheduler  *followup.Scheduler
	filter     *Filter
	tailor     Tailor
	opts       Options
	logger     *zap.SugaredLogger

	mu       sync.Mutex
	jobLocks map[string]*sync.Mutex
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(
	st *store.Store,
	limiter *quota.Limiter,
	dispatcher *dispatch.Dispatcher,
	scheduler *followup.Scheduler,
	filter *Filter,
	tailor Tailor,
	opts Options,
	logger *zap.SugaredLogger,
) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		store:      st,
		quota:      limiter,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		filter:     filter,
		tailor:     tailor,
		opts:       opts,
		logger:     logger,
		jobLocks:   make(map[string]*sync.Mutex),
	}
}

// Run persists the listings and processes each through the pipeline.
// The returned report always reflects the jobs processed so far, even
// when the run aborts.
func (o *Orchestrator) Run(ctx context.Context, listings []store.JobListing) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}

	if o.logger != nil {
		o.logger.Infow("Pipeline run starting",
			"run_id", report.RunID,
			"listings", len(listings),
			"workers", o.opts.Workers,
			"auto_submit", o.opts.AutoSubmit,
		)
	}

	for i := range listings {
		if err := o.store.UpsertJob(ctx, &listings[i]); err != nil {
			return report, errors.Wrapf(err, "persist listing %s", listings[i].ID)
		}
	}

	jobs := make(chan *store.JobListing)
	var (
		reportMu sync.Mutex
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatal    error
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for w := 0; w < o.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res, err := o.processJob(runCtx, job)
				reportMu.Lock()
				report.add(res)
				reportMu.Unlock()
				if err != nil {
					fatalMu.Lock()
					if fatal == nil {
						fatal = err
					}
					fatalMu.Unlock()
					cancel()
					return
				}
			}
		}()
	}

feed:
	for i := range listings {
		select {
		case jobs <- &listings[i]:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if o.logger != nil {
		o.logger.Infow("Pipeline run finished",
			"run_id", report.RunID,
			"submitted", report.Submitted,
			"prepared", report.Prepared,
			"failed", report.Failed,
			"deferred", report.Deferred,
			"filtered_out", report.FilteredOut,
			"duplicates", report.Duplicates,
		)
	}

	return report, fatal
}

// processJob runs one listing through the pipeline. The returned error
// is non-nil only for referential integrity violations.
func (o *Orchestrator) processJob(ctx context.Context, job *store.JobListing) (JobResult, error) {
	unlock := o.lockJob(job.ID)
	defer unlock()

	if ctx.Err() != nil {
		return JobResult{JobID: job.ID, Kind: OutcomeDeferred, Reason: "run cancelled"}, nil
	}

	if ok, reason := o.filter.Eligible(job); !ok {
		if err := o.store.SetJobStatus(ctx, job.ID, store.StatusFilteredOut); err != nil {
			return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, nil
		}
		return JobResult{JobID: job.ID, Kind: OutcomeFilteredOut, Reason: reason}, nil
	}

	// Idempotency: a job applied to once is never dispatched again
	existing, err := o.store.SuccessfulApplication(ctx, job.ID)
	if err != nil {
		return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, nil
	}
	if existing != nil {
		return JobResult{JobID: job.ID, Kind: OutcomeDuplicate,
			Reason: "already applied"}, nil
	}

	resume, coverLetter, err := o.runTailor(ctx, job)
	if err != nil {
		// Job stays eligible for the next run
		return JobResult{JobID: job.ID, Kind: OutcomeFailed,
			Reason: "tailoring failed", Err: err}, nil
	}
	if err := o.store.SetJobStatus(ctx, job.ID, store.StatusTailored); err != nil {
		return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, nil
	}

	if !o.opts.AutoSubmit {
		return JobResult{JobID: job.ID, Kind: OutcomePrepared,
			Reason: "auto submit disabled"}, nil
	}

	release, err := o.quota.Acquire(ctx)
	if err != nil {
		if errors.IsQuotaExceeded(err) {
			return JobResult{JobID: job.ID, Kind: OutcomeDeferred,
				Reason: "daily limit reached"}, nil
		}
		return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, nil
	}
	// Released after the outcome is persisted; the stored counter then
	// carries successes, and failed slots return to the pool.
	defer release()

	outcome := o.dispatcher.Submit(ctx, dispatch.Request{
		Job:             job,
		ResumePath:      resume,
		CoverLetterPath: coverLetter,
	})

	rec := &store.ApplicationRecord{
		JobID:           job.ID,
		SubmittedAt:     time.Now().UTC(),
		Success:         outcome.Success,
		ConfirmationID:  outcome.ConfirmationID,
		ResumePath:      resume,
		CoverLetterPath: coverLetter,
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}

	appID, err := o.store.InsertApplication(ctx, rec)
	if err != nil {
		if errors.IsDuplicateSubmission(err) {
			// Lost a race with another successful submission
			return JobResult{JobID: job.ID, Kind: OutcomeDuplicate,
				Reason: "already applied"}, nil
		}
		if errors.IsReferential(err) {
			return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, err
		}
		return JobResult{JobID: job.ID, Kind: OutcomeFailed, Err: err}, nil
	}

	if !outcome.Success {
		return JobResult{JobID: job.ID, Kind: OutcomeFailed,
			Reason: "submission failed", Err: outcome.Err}, nil
	}

	if o.opts.FollowUpEnabled {
		_, err := o.scheduler.Schedule(ctx, appID, rec.SubmittedAt, o.opts.FollowUpDelayDays)
		if err != nil {
			if errors.IsReferential(err) {
				return JobResult{JobID: job.ID, Kind: OutcomeSubmitted, Err: err}, err
			}
			if o.logger != nil {
				o.logger.Warnw("Follow-up scheduling failed",
					"job_id", job.ID,
					"application_id", appID,
					"error", err,
				)
			}
		}
	}

	return JobResult{JobID: job.ID, Kind: OutcomeSubmitted}, nil
}

func (o *Orchestrator) runTailor(ctx context.Context, job *store.JobListing) (string, string, error) {
	if o.opts.TailorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.TailorTimeout)
		defer cancel()
	}
	return o.tailor.Tailor(ctx, job)
}

// lockJob serializes processing per job id; independent jobs proceed
// concurrently.
func (o *Orchestrator) lockJob(id string) func() {
	o.mu.Lock()
	m, ok := o.jobLocks[id]
	if !ok {
		m = &sync.Mutex{}
		o.jobLocks[id] = m
	}
	o.mu.Unlock()
	m.Lock()
	return m.Unlock
}
