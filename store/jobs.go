package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/applyd/applyd/errors"
)

// UpsertJob inserts a new listing or refreshes the mutable fields of an
// existing one. ID, date_discovered and status are never overwritten by a
// re-discovery; a first insert bumps the day's jobs_discovered counter.
func (s *Store) UpsertJob(ctx context.Context, job *JobListing) error {
	if job.ID == "" {
		return errors.New("job listing id is required")
	}

	now := time.Now().UTC()
	if job.DateDiscovered.IsZero() {
		job.DateDiscovered = now
	}
	if job.Status == "" {
		job.Status = StatusDiscovered
	}
	job.UpdatedAt = now

	extras, err := marshalExtras(job.Extras)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM job_listings WHERE id = ?)", job.ID).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "check job existence")
	}

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE job_listings
			SET title = ?, company = ?, location = ?, description = ?,
			    url = ?, application_url = ?, date_posted = ?,
			    salary_range = ?, source = ?, extras = ?, updated_at = ?
			WHERE id = ?`,
			job.Title, job.Company, job.Location, job.Description,
			job.URL, job.ApplicationURL, nullTime(job.DatePosted),
			nullStr(job.SalaryRange), job.Source, extras, formatTime(job.UpdatedAt),
			job.ID)
		if err != nil {
			return errors.Wrapf(err, "update job %s", job.ID)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO job_listings (
				id, title, company, location, description, url, application_url,
				date_posted, date_discovered, salary_range, source, extras,
				status, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ID, job.Title, job.Company, job.Location, job.Description,
			job.URL, job.ApplicationURL, nullTime(job.DatePosted),
			formatTime(job.DateDiscovered), nullStr(job.SalaryRange),
			job.Source, extras, string(job.Status), formatTime(job.UpdatedAt))
		if err != nil {
			return errors.Wrapf(err, "insert job %s", job.ID)
		}
		if err := incrementCounter(ctx, tx, job.DateDiscovered, "jobs_discovered", 1); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit job upsert")
}

// GetJob fetches a listing by id, returning ErrNotFound when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*JobListing, error) {
	row := s.db.QueryRowContext(ctx, selectJobColumns+" WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	return job, err
}

// ListJobsByStatus returns listings in a given pipeline status, most
// recently discovered first.
func (s *Store) ListJobsByStatus(ctx context.Context, status JobStatus) ([]JobListing, error) {
	rows, err := s.db.QueryContext(ctx,
		selectJobColumns+" WHERE status = ? ORDER BY date_discovered DESC", string(status))
	if err != nil {
		return nil, errors.Wrap(err, "query jobs by status")
	}
	defer rows.Close()

	var jobs []JobListing
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// SetJobStatus updates just the pipeline status of a listing.
func (s *Store) SetJobStatus(ctx context.Context, id string, status JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE job_listings SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return errors.Wrapf(err, "update status for job %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "job %s", id)
	}
	return nil
}

const selectJobColumns = `
	SELECT id, title, company, location, description, url, application_url,
	       date_posted, date_discovered, salary_range, source, extras,
	       status, updated_at
	FROM job_listings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*JobListing, error) {
	var (
		job            JobListing
		datePosted     sql.NullString
		dateDiscovered string
		salaryRange    sql.NullString
		extras         sql.NullString
		status         string
		updatedAt      string
	)
	err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location,
		&job.Description, &job.URL, &job.ApplicationURL,
		&datePosted, &dateDiscovered, &salaryRange, &job.Source, &extras,
		&status, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan job")
	}

	if datePosted.Valid {
		t, err := parseTime(datePosted.String)
		if err != nil {
			return nil, err
		}
		job.DatePosted = &t
	}
	if job.DateDiscovered, err = parseTime(dateDiscovered); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	job.SalaryRange = salaryRange.String
	job.Status = JobStatus(status)

	if extras.Valid && extras.String != "" {
		var e Extras
		if err := json.Unmarshal([]byte(extras.String), &e); err != nil {
			return nil, errors.Wrapf(err, "decode extras for job %s", job.ID)
		}
		job.Extras = &e
	}

	return &job, nil
}

func marshalExtras(e *Extras) (sql.NullString, error) {
	if e == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "encode extras")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
