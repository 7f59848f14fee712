package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/followup"
	"github.com/applyd/applyd/logger"
	"github.com/applyd/applyd/store"
)

// FollowupsCmd manages scheduled follow-ups.
var FollowupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Manage scheduled follow-ups",
	Long: `Manage follow-ups scheduled after submitted applications.

Examples:
  applyd followups ls                 # Follow-ups due within the lookahead
  applyd followups ls --lookahead 7   # Due within the next week
  applyd followups complete 3         # Mark follow-up 3 done
  applyd followups watch              # Keep sending due follow-ups`,
}

var followupsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List due follow-ups",
	RunE:  runFollowupsLs,
}

var followupsCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a follow-up as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollowupsComplete,
}

var followupsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically surface due follow-ups until interrupted",
	RunE:  runFollowupsWatch,
}

var lookaheadFlag int

func init() {
	FollowupsCmd.AddCommand(followupsLsCmd)
	FollowupsCmd.AddCommand(followupsCompleteCmd)
	FollowupsCmd.AddCommand(followupsWatchCmd)
	followupsLsCmd.Flags().IntVar(&lookaheadFlag, "lookahead", 0,
		"Days ahead to include (default: follow_up.lookahead_days from config)")
}

func runFollowupsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	lookahead := lookaheadFlag
	if lookahead == 0 {
		lookahead = cfg.Application.FollowUp.LookaheadDays
	}

	scheduler := followup.NewScheduler(st)
	due, err := scheduler.Due(cmd.Context(), lookahead)
	if err != nil {
		return errors.Wrap(err, "list due follow-ups")
	}

	if len(due) == 0 {
		fmt.Println("No follow-ups due.")
		return nil
	}

	for _, d := range due {
		fmt.Printf("%4d  %s  %s at %s (application %d)\n",
			d.ID, d.DueDate.Format("2006-01-02"), d.JobTitle, d.Company, d.ApplicationID)
	}
	return nil
}

func runFollowupsComplete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid follow-up id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := followup.NewScheduler(st).Complete(cmd.Context(), id); err != nil {
		return errors.Wrapf(err, "complete follow-up %d", id)
	}
	fmt.Printf("Follow-up %d completed.\n", id)
	return nil
}

func runFollowupsWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	scheduler := followup.NewScheduler(st)
	sender := followup.SenderFunc(func(ctx context.Context, d store.FollowUpDetail) error {
		fmt.Printf("Follow up with %s about %s (application %d)\n",
			d.Company, d.JobTitle, d.ApplicationID)
		return nil
	})

	ticker := followup.NewTicker(scheduler, sender,
		time.Duration(cfg.Application.FollowUp.TickerIntervalSeconds)*time.Second,
		cfg.Application.FollowUp.LookaheadDays,
		logger.Logger)

	logger.Infow("Watching for due follow-ups",
		"interval_seconds", cfg.Application.FollowUp.TickerIntervalSeconds,
	)
	err = ticker.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
