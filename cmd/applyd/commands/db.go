package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/applyd/applyd/errors"
)

// DbCmd manages the applyd database.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the applyd database",
	Long: `Manage applyd database operations.

Examples:
  applyd db migrate                # Apply pending schema migrations
  applyd db snapshot               # Back up into the backup directory
  applyd db snapshot --dir /mnt/b  # Back up somewhere else`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write a consistent backup copy of the database",
	RunE:  runDbSnapshot,
}

var snapshotDirFlag string

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbSnapshotCmd)
	dbSnapshotCmd.Flags().StringVar(&snapshotDirFlag, "dir", "",
		"Snapshot directory (default: database.backup_directory from config)")
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	// openStore migrates as a side effect
	database, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Println("Database schema is up to date.")
	return nil
}

func runDbSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	database, st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	dir := snapshotDirFlag
	if dir == "" {
		dir = cfg.Database.BackupDirectory
	}

	path, err := st.Snapshot(cmd.Context(), dir)
	if err != nil {
		return errors.Wrap(err, "snapshot database")
	}
	fmt.Printf("Snapshot written to %s\n", path)
	return nil
}
