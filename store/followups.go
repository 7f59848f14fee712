package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/applyd/applyd/errors"
)

// InsertFollowUp schedules a follow-up for a submitted application.
// An unknown application id comes back as ErrReferentialIntegrity.
func (s *Store) InsertFollowUp(ctx context.Context, rec *FollowUpRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO follow_ups (application_id, due_date, completed, notes)
		VALUES (?, ?, 0, ?)`,
		rec.ApplicationID, rec.DueDate.UTC().Format(dateLayout), nullStr(rec.Notes))
	if err != nil {
		return mapConstraintErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "last insert id")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit follow-up")
	}
	rec.ID = id
	return nil
}

// MarkFollowUpComplete flips a follow-up to completed. Completing an
// already-completed follow-up is a no-op; only the actual transition
// bumps the follow_ups_sent counter. Unknown ids return ErrNotFound.
func (s *Store) MarkFollowUpComplete(ctx context.Context, id int64, completedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE follow_ups SET completed = 1, completed_at = ?
		WHERE id = ? AND completed = 0`,
		formatTime(completedAt), id)
	if err != nil {
		return errors.Wrapf(err, "complete follow-up %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}

	if n == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM follow_ups WHERE id = ?)", id).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "check follow-up existence")
		}
		if !exists {
			return errors.Wrapf(errors.ErrNotFound, "follow-up %d", id)
		}
		// Already completed
		return nil
	}

	if err := incrementCounter(ctx, tx, completedAt, "follow_ups_sent", 1); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit follow-up completion")
}

// DueFollowUps returns pending follow-ups due within [windowStart,
// windowEnd], joined with their application and job listing, ordered by
// due date then application id.
func (s *Store) DueFollowUps(ctx context.Context, windowStart, windowEnd time.Time) ([]FollowUpDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.application_id, f.due_date, f.completed, f.completed_at,
		       f.notes, a.job_id, j.title, j.company
		FROM follow_ups f
		JOIN applications a ON a.id = f.application_id
		JOIN job_listings j ON j.id = a.job_id
		WHERE f.completed = 0 AND f.due_date >= ? AND f.due_date <= ?
		ORDER BY f.due_date ASC, f.application_id ASC`,
		windowStart.UTC().Format(dateLayout), windowEnd.UTC().Format(dateLayout))
	if err != nil {
		return nil, errors.Wrap(err, "query due follow-ups")
	}
	defer rows.Close()

	var details []FollowUpDetail
	for rows.Next() {
		var (
			d           FollowUpDetail
			dueDate     string
			completed   int
			completedAt sql.NullString
			notes       sql.NullString
		)
		err := rows.Scan(&d.ID, &d.ApplicationID, &dueDate, &completed,
			&completedAt, &notes, &d.JobID, &d.JobTitle, &d.Company)
		if err != nil {
			return nil, errors.Wrap(err, "scan follow-up")
		}
		if d.DueDate, err = time.Parse(dateLayout, dueDate); err != nil {
			return nil, errors.Wrapf(err, "parse due date %q", dueDate)
		}
		d.Completed = completed == 1
		if completedAt.Valid {
			t, err := parseTime(completedAt.String)
			if err != nil {
				return nil, err
			}
			d.CompletedAt = &t
		}
		d.Notes = notes.String
		details = append(details, d)
	}
	return details, rows.Err()
}
