package followup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apptesting "github.com/applyd/applyd/internal/testing"
	"github.com/applyd/applyd/store"
)

func setup(t *testing.T) (*store.Store, *Scheduler, int64) {
	t.Helper()
	st := store.NewStore(apptesting.CreateTestDB(t))
	ctx := context.Background()

	require.NoError(t, st.UpsertJob(ctx, &store.JobListing{
		ID: "j1", Title: "Engineer", Company: "Acme",
	}))
	appID, err := st.InsertApplication(ctx, &store.ApplicationRecord{
		JobID: "j1", Success: true,
	})
	require.NoError(t, err)

	return st, NewScheduler(st), appID
}

func TestScheduleCalendarArithmetic(t *testing.T) {
	_, sched, appID := setup(t)

	// Late-January base date rolls into February
	base := time.Date(2025, 1, 28, 15, 30, 0, 0, time.UTC)
	rec, err := sched.Schedule(context.Background(), appID, base, 7)
	require.NoError(t, err)
	assert.Equal(t, 2025, rec.DueDate.Year())
	assert.Equal(t, time.February, rec.DueDate.Month())
	assert.Equal(t, 4, rec.DueDate.Day())

	// Year rollover
	rec, err = sched.Schedule(context.Background(), appID, time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), rec.DueDate)
}

func TestScheduleRejectsNegativeDelay(t *testing.T) {
	_, sched, appID := setup(t)

	_, err := sched.Schedule(context.Background(), appID, time.Now(), -1)
	require.Error(t, err)
}

func TestDueWindow(t *testing.T) {
	_, sched, appID := setup(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return now }

	// Due today, due tomorrow, and far future
	for _, base := range []time.Time{
		now.AddDate(0, 0, -7),
		now.AddDate(0, 0, -6),
		now.AddDate(0, 0, 30),
	} {
		_, err := sched.Schedule(ctx, appID, base, 7)
		require.NoError(t, err)
	}

	due, err := sched.Due(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

func TestTickerSendsAndCompletes(t *testing.T) {
	st, sched, appID := setup(t)
	ctx := context.Background()

	_, err := sched.Schedule(ctx, appID, time.Now().UTC().AddDate(0, 0, -7), 7)
	require.NoError(t, err)

	var mu sync.Mutex
	var sent []store.FollowUpDetail
	sender := SenderFunc(func(ctx context.Context, d store.FollowUpDetail) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, d)
		return nil
	})

	ticker := NewTicker(sched, sender, time.Hour, 1, nil)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- ticker.Run(runCtx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, "Acme", sent[0].Company)

	due, err := st.DueFollowUps(ctx, time.Unix(0, 0), time.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Empty(t, due, "sent follow-up is marked complete")
}

func TestTickerSendFailureLeavesPending(t *testing.T) {
	st, sched, appID := setup(t)
	ctx := context.Background()

	_, err := sched.Schedule(ctx, appID, time.Now().UTC().AddDate(0, 0, -7), 7)
	require.NoError(t, err)

	sender := SenderFunc(func(ctx context.Context, d store.FollowUpDetail) error {
		return assert.AnError
	})

	ticker := NewTicker(sched, sender, time.Hour, 1, nil)
	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_ = ticker.Run(runCtx)

	due, err := st.DueFollowUps(ctx, time.Unix(0, 0), time.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, due, 1, "failed send stays pending")
}
