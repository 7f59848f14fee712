package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/applyd/applyd/errors"
)

// InsertApplication appends a submission record and moves the parent
// listing to status applied; only a successful record bumps the day's
// applications_submitted counter. All effects land in one transaction.
// A second successful record for the same job violates the partial
// unique index and comes back as ErrDuplicateSubmission; an unknown job
// id comes back as ErrReferentialIntegrity.
func (s *Store) InsertApplication(ctx context.Context, rec *ApplicationRecord) (int64, error) {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO applications (
			job_id, submitted_at, success, confirmation_id, error, notes,
			resume_path, cover_letter_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, formatTime(rec.SubmittedAt), boolToInt(rec.Success),
		nullStr(rec.ConfirmationID), nullStr(rec.Error), nullStr(rec.Notes),
		nullStr(rec.ResumePath), nullStr(rec.CoverLetterPath))
	if err != nil {
		return 0, mapConstraintErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "last insert id")
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE job_listings SET status = ?, updated_at = ? WHERE id = ?",
		string(StatusApplied), formatTime(time.Now()), rec.JobID)
	if err != nil {
		return 0, errors.Wrapf(err, "mark job %s applied", rec.JobID)
	}

	if rec.Success {
		if err := incrementCounter(ctx, tx, rec.SubmittedAt, "applications_submitted", 1); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit application")
	}
	rec.ID = id
	return id, nil
}

// SuccessfulApplication returns the successful submission for a job, or
// nil when the job has never been successfully applied to.
func (s *Store) SuccessfulApplication(ctx context.Context, jobID string) (*ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectApplicationColumns+
		" WHERE job_id = ? AND success = 1", jobID)
	rec, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// GetApplication fetches a submission record by id, returning
// ErrNotFound when absent.
func (s *Store) GetApplication(ctx context.Context, id int64) (*ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectApplicationColumns+" WHERE id = ?", id)
	rec, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "application %d", id)
	}
	return rec, err
}

// ListApplications returns all submission attempts for a job, oldest first.
func (s *Store) ListApplications(ctx context.Context, jobID string) ([]ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectApplicationColumns+
		" WHERE job_id = ? ORDER BY id ASC", jobID)
	if err != nil {
		return nil, errors.Wrap(err, "query applications")
	}
	defer rows.Close()

	var recs []ApplicationRecord
	for rows.Next() {
		rec, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// CountSuccessfulApplications counts confirmed submissions on a civil day.
func (s *Store) CountSuccessfulApplications(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE success = 1 AND substr(submitted_at, 1, 10) = ?`,
		day.UTC().Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count successful applications")
	}
	return count, nil
}

const selectApplicationColumns = `
	SELECT id, job_id, submitted_at, success, confirmation_id, error, notes,
	       resume_path, cover_letter_path
	FROM applications`

func scanApplication(row rowScanner) (*ApplicationRecord, error) {
	var (
		rec                                          ApplicationRecord
		submittedAt                                  string
		success                                      int
		confirmationID, errMsg, notes, resume, cover sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.JobID, &submittedAt, &success,
		&confirmationID, &errMsg, &notes, &resume, &cover)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan application")
	}

	if rec.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return nil, err
	}
	rec.Success = success == 1
	rec.ConfirmationID = confirmationID.String
	rec.Error = errMsg.String
	rec.Notes = notes.String
	rec.ResumePath = resume.String
	rec.CoverLetterPath = cover.String
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
