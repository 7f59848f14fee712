package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/applyd/applyd/discovery"
	"github.com/applyd/applyd/dispatch"
	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/followup"
	"github.com/applyd/applyd/logger"
	"github.com/applyd/applyd/pipeline"
	"github.com/applyd/applyd/quota"
	"github.com/applyd/applyd/store"
)

// RunCmd runs the application pipeline over a batch of listings.
var RunCmd = &cobra.Command{
	Use:   "run [listings.json...]",
	Short: "Run the application pipeline",
	Long: `Run the application pipeline over discovered listings.

Listings come from the JSON batch files given as arguments, plus any
source files configured under [search]. Each listing is filtered,
tailored and, when --submit (or auto_submit in the config) is set,
submitted through its channel and scheduled for follow-up.

Examples:
  applyd run listings.json             # Prepare applications only
  applyd run --submit listings.json    # Submit under the daily limit
  applyd run --resume cv.pdf batch.json`,
	RunE: runPipeline,
}

var (
	submitFlag      bool
	resumeFlag      string
	coverLetterFlag string
)

func init() {
	RunCmd.Flags().BoolVar(&submitFlag, "submit", false,
		"Submit applications (overrides auto_submit = false in config)")
	RunCmd.Flags().StringVar(&resumeFlag, "resume", "resume.pdf",
		"Resume file to attach")
	RunCmd.Flags().StringVar(&coverLetterFlag, "cover-letter", "",
		"Cover letter file to attach")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	paths := append([]string{}, cfg.Search.SourceFiles...)
	paths = append(paths, args...)
	if len(paths) == 0 {
		return errors.New("no listing files given and none configured under [search]")
	}

	var sources []discovery.Source
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sources = append(sources, discovery.NewFileSource(name, path))
	}

	aggregator := discovery.NewAggregator(
		time.Duration(cfg.Dispatch.AdapterTimeoutSeconds)*time.Second,
		logger.Logger, sources...)
	listings := aggregator.FindJobs(cmd.Context())
	if len(listings) == 0 {
		fmt.Println("No listings discovered.")
		return nil
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	dispatcher := dispatch.NewDispatcher(
		time.Duration(cfg.Dispatch.AdapterTimeoutSeconds)*time.Second,
		cfg.Dispatch.RequestsPerMinute,
		logger.Logger)
	registerManualAdapters(dispatcher)

	orchestrator := pipeline.NewOrchestrator(
		st,
		quota.NewLimiter(st, cfg.Application.DailyLimit),
		dispatcher,
		followup.NewScheduler(st),
		pipeline.NewFilter(cfg.Search.Filters.MinSalary, cfg.Search.Filters.ExcludeKeywords),
		staticTailor{resume: resumeFlag, coverLetter: coverLetterFlag},
		pipeline.Options{
			AutoSubmit:        cfg.Application.AutoSubmit || submitFlag,
			FollowUpEnabled:   cfg.Application.FollowUp.Enabled,
			FollowUpDelayDays: cfg.Application.FollowUp.DelayDays,
			TailorTimeout:     time.Duration(cfg.Dispatch.AdapterTimeoutSeconds) * time.Second,
			Workers:           cfg.Pipeline.Workers,
		},
		logger.Logger)

	report, err := orchestrator.Run(cmd.Context(), listings)
	printReport(report)
	if err != nil {
		return errors.Wrap(err, "pipeline run aborted")
	}
	return nil
}

func printReport(r *pipeline.Report) {
	fmt.Printf("Run %s\n", r.RunID)
	fmt.Printf("  submitted:    %d\n", r.Submitted)
	fmt.Printf("  prepared:     %d\n", r.Prepared)
	fmt.Printf("  deferred:     %d\n", r.Deferred)
	fmt.Printf("  duplicates:   %d\n", r.Duplicates)
	fmt.Printf("  filtered out: %d\n", r.FilteredOut)
	fmt.Printf("  failed:       %d\n", r.Failed)

	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Printf("  %s: %s (%v)\n", res.JobID, res.Kind, res.Err)
		}
	}
}

// staticTailor attaches the same documents to every application.
// Stands in for a real document generator behind the Tailor interface.
type staticTailor struct {
	resume      string
	coverLetter string
}

func (s staticTailor) Tailor(ctx context.Context, job *store.JobListing) (string, string, error) {
	return s.resume, s.coverLetter, nil
}

// registerManualAdapters installs adapters that record the submission
// intent and hand back a locally generated confirmation id. Real board
// integrations plug in over the same interface.
func registerManualAdapters(d *dispatch.Dispatcher) {
	for _, ch := range []dispatch.Channel{
		dispatch.ChannelLinkedIn,
		dispatch.ChannelIndeed,
		dispatch.ChannelGlassdoor,
		dispatch.ChannelEmail,
		dispatch.ChannelWebForm,
	} {
		channel := ch
		d.RegisterAdapter(channel, dispatch.AdapterFunc(
			func(ctx context.Context, req dispatch.Request) (string, error) {
				logger.Infow("Manual submission recorded",
					"job_id", req.Job.ID,
					"company", req.Job.Company,
					"channel", channel,
					"resume", req.ResumePath,
				)
				return fmt.Sprintf("manual-%s", uuid.NewString()[:8]), nil
			}))
	}
}
