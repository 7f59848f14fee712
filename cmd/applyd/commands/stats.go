package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/store"
)

// StatsCmd shows daily pipeline activity.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily activity statistics",
	Long: `Show daily counters for the application pipeline.

Examples:
  applyd stats                     # Last 7 days of activity
  applyd stats --days 30           # Last month
  applyd stats record interview    # Log an interview for today
  applyd stats record offer`,
	RunE: runStats,
}

var statsRecordCmd = &cobra.Command{
	Use:   "record <interview|offer>",
	Short: "Record an interview or offer for today",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsRecord,
}

var statsDaysFlag int

func init() {
	StatsCmd.AddCommand(statsRecordCmd)
	StatsCmd.Flags().IntVar(&statsDaysFlag, "days", 7, "Number of days to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := st.DailyStats(cmd.Context(), statsDaysFlag)
	if err != nil {
		return errors.Wrap(err, "load daily stats")
	}

	if len(stats) == 0 {
		fmt.Println("No activity recorded yet.")
		return nil
	}

	rows := pterm.TableData{
		{"Date", "Discovered", "Submitted", "Follow-ups", "Interviews", "Offers"},
	}
	for _, s := range stats {
		rows = append(rows, []string{
			s.Date,
			strconv.Itoa(s.JobsDiscovered),
			strconv.Itoa(s.ApplicationsSubmitted),
			strconv.Itoa(s.FollowUpsSent),
			strconv.Itoa(s.InterviewsScheduled),
			strconv.Itoa(s.OffersReceived),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runStatsRecord(cmd *cobra.Command, args []string) error {
	var event store.Event
	switch args[0] {
	case "interview":
		event = store.EventInterview
	case "offer":
		event = store.EventOffer
	default:
		return errors.Newf("unknown event %q (want interview or offer)", args[0])
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

	if err := st.IncrementEvent(cmd.Context(), time.Now().UTC(), event); err != nil {
		return errors.Wrapf(err, "record %s", event)
	}
	fmt.Printf("Recorded %s for today.\n", event)
	return nil
}
