package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A counter failure after the application row is written must roll the
// whole write back, never leaving a record without its counter.
func TestInsertApplicationRollsBackOnCounterFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("UPDATE job_listings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO daily_counters").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	s := NewStore(db)
	_, err = s.InsertApplication(context.Background(), &ApplicationRecord{
		JobID:   "j1",
		Success: true,
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertJobRollsBackOnCounterFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO job_listings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO daily_counters").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	s := NewStore(db)
	err = s.UpsertJob(context.Background(), testJob("j1"))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
