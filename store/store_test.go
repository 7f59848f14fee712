package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applyd/applyd/errors"
	apptesting "github.com/applyd/applyd/internal/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(apptesting.CreateTestDB(t))
}

func testJob(id string) *JobListing {
	return &JobListing{
		ID:             id,
		Title:          "Backend Engineer",
		Company:        "Acme",
		Location:       "Remote",
		Description:    "Build services in Go",
		URL:            "https://example.com/jobs/" + id,
		ApplicationURL: "https://example.com/jobs/" + id + "/apply",
		Source:         "example",
	}
}

func TestUpsertJobInsertsAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("j1")
	job.Extras = &Extras{Requirements: []string{"Go", "SQL"}}
	require.NoError(t, s.UpsertJob(ctx, job))

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, StatusDiscovered, got.Status)
	require.NotNil(t, got.Extras)
	assert.Equal(t, []string{"Go", "SQL"}, got.Extras.Requirements)
	assert.False(t, got.DateDiscovered.IsZero())

	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].JobsDiscovered)
}

func TestUpsertJobRediscoveryKeepsIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("j1")
	require.NoError(t, s.UpsertJob(ctx, job))
	first, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)

	require.NoError(t, s.SetJobStatus(ctx, "j1", StatusTailored))

	// Re-discovery updates mutable fields only
	again := testJob("j1")
	again.Title = "Senior Backend Engineer"
	require.NoError(t, s.UpsertJob(ctx, again))

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", got.Title)
	assert.Equal(t, StatusTailored, got.Status)
	assert.Equal(t, first.DateDiscovered, got.DateDiscovered)

	// No second discovery count
	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].JobsDiscovered)
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestInsertApplicationSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))

	id, err := s.InsertApplication(ctx, &ApplicationRecord{
		JobID:          "j1",
		Success:        true,
		ConfirmationID: "conf-123",
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	job, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, job.Status)

	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].ApplicationsSubmitted)
}

func TestInsertApplicationDuplicateSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))

	_, err := s.InsertApplication(ctx, &ApplicationRecord{JobID: "j1", Success: true})
	require.NoError(t, err)

	_, err = s.InsertApplication(ctx, &ApplicationRecord{JobID: "j1", Success: true})
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateSubmission(err))

	// The duplicate attempt left no trace
	recs, err := s.ListApplications(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestInsertApplicationFailuresAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))

	for i := 0; i < 3; i++ {
		_, err := s.InsertApplication(ctx, &ApplicationRecord{
			JobID: "j1",
			Error: "adapter timeout",
		})
		require.NoError(t, err)
	}

	// Any recorded attempt moves the listing to applied
	job, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, job.Status)

	_, err = s.InsertApplication(ctx, &ApplicationRecord{JobID: "j1", Success: true})
	require.NoError(t, err)

	recs, err := s.ListApplications(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	// Failed attempts never consume the submitted counter
	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].ApplicationsSubmitted)
}

func TestInsertApplicationUnknownJob(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertApplication(context.Background(), &ApplicationRecord{JobID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsReferential(err))
}

func TestSuccessfulApplicationLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))

	rec, err := s.SuccessfulApplication(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.InsertApplication(ctx, &ApplicationRecord{JobID: "j1", Error: "boom"})
	require.NoError(t, err)

	rec, err = s.SuccessfulApplication(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, rec, "failed attempts are not successes")

	_, err = s.InsertApplication(ctx, &ApplicationRecord{
		JobID: "j1", Success: true, ConfirmationID: "conf-9",
	})
	require.NoError(t, err)

	rec, err = s.SuccessfulApplication(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "conf-9", rec.ConfirmationID)
}

func TestCountSuccessfulApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"j1", "j2", "j3"} {
		require.NoError(t, s.UpsertJob(ctx, testJob(id)))
		rec := &ApplicationRecord{
			JobID:       id,
			SubmittedAt: day.Add(time.Duration(i) * time.Hour),
			Success:     i < 2, // third attempt fails
		}
		if !rec.Success {
			rec.Error = "rejected"
		}
		_, err := s.InsertApplication(ctx, rec)
		require.NoError(t, err)
	}

	count, err := s.CountSuccessfulApplications(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.CountSuccessfulApplications(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsertFollowUpReferentialIntegrity(t *testing.T) {
	s := newTestStore(t)

	err := s.InsertFollowUp(context.Background(), &FollowUpRecord{
		ApplicationID: 999,
		DueDate:       time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.True(t, errors.IsReferential(err))
}

func TestMarkFollowUpCompleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))
	appID, err := s.InsertApplication(ctx, &ApplicationRecord{JobID: "j1", Success: true})
	require.NoError(t, err)

	fu := &FollowUpRecord{
		ApplicationID: appID,
		DueDate:       time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertFollowUp(ctx, fu))

	now := time.Date(2025, 2, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkFollowUpComplete(ctx, fu.ID, now))
	require.NoError(t, s.MarkFollowUpComplete(ctx, fu.ID, now.Add(time.Hour)))

	// Counter bumped exactly once
	stats, err := s.DailyStats(ctx, 30)
	require.NoError(t, err)
	var sent int
	for _, st := range stats {
		sent += st.FollowUpsSent
	}
	assert.Equal(t, 1, sent)

	err = s.MarkFollowUpComplete(ctx, 4242, now)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestDueFollowUpsOrderingAndWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var appIDs []int64
	for _, id := range []string{"j1", "j2", "j3"} {
		require.NoError(t, s.UpsertJob(ctx, testJob(id)))
		appID, err := s.InsertApplication(ctx, &ApplicationRecord{JobID: id, Success: true})
		require.NoError(t, err)
		appIDs = append(appIDs, appID)
	}

	day := func(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

	// Insert out of order to exercise the sort
	require.NoError(t, s.InsertFollowUp(ctx, &FollowUpRecord{ApplicationID: appIDs[2], DueDate: day(5)}))
	require.NoError(t, s.InsertFollowUp(ctx, &FollowUpRecord{ApplicationID: appIDs[0], DueDate: day(3)}))
	require.NoError(t, s.InsertFollowUp(ctx, &FollowUpRecord{ApplicationID: appIDs[1], DueDate: day(3)}))
	require.NoError(t, s.InsertFollowUp(ctx, &FollowUpRecord{ApplicationID: appIDs[0], DueDate: day(20)}))

	due, err := s.DueFollowUps(ctx, day(1), day(6))
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, appIDs[0], due[0].ApplicationID)
	assert.Equal(t, appIDs[1], due[1].ApplicationID)
	assert.Equal(t, appIDs[2], due[2].ApplicationID)
	assert.Equal(t, "Acme", due[0].Company)

	// Completed follow-ups drop out of the window
	require.NoError(t, s.MarkFollowUpComplete(ctx, due[0].ID, day(3)))
	due, err = s.DueFollowUps(ctx, day(1), day(6))
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

func TestIncrementEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.IncrementEvent(ctx, day, EventInterview))
	require.NoError(t, s.IncrementEvent(ctx, day, EventInterview))
	require.NoError(t, s.IncrementEvent(ctx, day, EventOffer))

	stats, err := s.DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].InterviewsScheduled)
	assert.Equal(t, 1, stats[0].OffersReceived)

	err = s.IncrementEvent(ctx, day, Event("promotion"))
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertJob(ctx, testJob("j1")))

	dir := t.TempDir()
	path, err := s.Snapshot(ctx, dir)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
