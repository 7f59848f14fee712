package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/applyd/applyd/cmd/applyd/commands"
	"github.com/applyd/applyd/logger"
)

var rootCmd = &cobra.Command{
	Use:   "applyd",
	Short: "applyd - job application pipeline",
	Long: `applyd - automated job application pipeline.

applyd discovers job listings, filters them against your preferences,
tailors application material, submits through the right channel under a
daily limit, and schedules follow-ups for everything it sends.

Available commands:
  run        - Run the application pipeline over discovered listings
  followups  - List, send and complete scheduled follow-ups
  stats      - Show daily activity statistics
  db         - Manage the applyd database
  version    - Show version information

Examples:
  applyd run listings.json         # Process a batch of listings
  applyd run --submit              # Actually submit, not just prepare
  applyd followups ls              # Show follow-ups due soon
  applyd stats --days 14           # Two weeks of activity
  applyd db snapshot               # Back up the database`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(commands.JSONLog); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "",
		"Path to config file (default: search upward for applyd.toml)")
	rootCmd.PersistentFlags().BoolVar(&commands.JSONLog, "json", false,
		"Emit logs as JSON")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.FollowupsCmd)
	rootCmd.AddCommand(commands.StatsCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
