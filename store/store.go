package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/applyd/applyd/errors"
)

const dateLayout = "2006-01-02"

// Store provides persistence for the application pipeline.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying database handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Snapshot writes a consistent copy of the database into dir using
// VACUUM INTO and returns the snapshot path.
func (s *Store) Snapshot(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create snapshot directory")
	}

	path := filepath.Join(dir, fmt.Sprintf("applyd-%s.db", time.Now().UTC().Format("20060102-150405")))
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", errors.Wrap(err, "vacuum into snapshot")
	}

	return path, nil
}

// DailyStats returns the most recent daily counter rows, newest first.
func (s *Store) DailyStats(ctx context.Context, days int) ([]DailyStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, jobs_discovered, applications_submitted,
		       follow_ups_sent, interviews_scheduled, offers_received
		FROM daily_counters
		ORDER BY date DESC
		LIMIT ?`, days)
	if err != nil {
		return nil, errors.Wrap(err, "query daily stats")
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var st DailyStat
		if err := rows.Scan(&st.Date, &st.JobsDiscovered, &st.ApplicationsSubmitted,
			&st.FollowUpsSent, &st.InterviewsScheduled, &st.OffersReceived); err != nil {
			return nil, errors.Wrap(err, "scan daily stat")
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// IncrementEvent records a manually tracked milestone (interview, offer)
// against the given day's counters.
func (s *Store) IncrementEvent(ctx context.Context, day time.Time, event Event) error {
	var column string
	switch event {
	case EventInterview:
		column = "interviews_scheduled"
	case EventOffer:
		column = "offers_received"
	default:
		return errors.Newf("unknown event: %s", event)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err := incrementCounter(ctx, tx, day, column, 1); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit event")
}

var counterColumns = map[string]bool{
	"jobs_discovered":        true,
	"applications_submitted": true,
	"follow_ups_sent":        true,
	"interviews_scheduled":   true,
	"offers_received":        true,
}

// incrementCounter bumps one daily counter column inside the caller's
// transaction, lazily creating the day's row.
func incrementCounter(ctx context.Context, tx *sql.Tx, day time.Time, column string, n int) error {
	if !counterColumns[column] {
		return errors.Newf("unknown counter column: %s", column)
	}
	query := fmt.Sprintf(`
		INSERT INTO daily_counters (date, %[1]s) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET %[1]s = %[1]s + excluded.%[1]s`, column)
	if _, err := tx.ExecContext(ctx, query, day.UTC().Format(dateLayout), n); err != nil {
		return errors.Wrapf(err, "increment %s", column)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapConstraintErr translates SQLite constraint violations into the
// sentinel errors callers branch on.
func mapConstraintErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return errors.Wrap(errors.ErrDuplicateSubmission, se.Error())
		case sqlite3.ErrConstraintForeignKey:
			return errors.Wrap(errors.ErrReferentialIntegrity, se.Error())
		}
	}
	return err
}
