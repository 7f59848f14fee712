package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applyd/applyd/errors"
)

type fakeCounter struct {
	count atomic.Int64
}

func (f *fakeCounter) CountSuccessfulApplications(ctx context.Context, day time.Time) (int, error) {
	return int(f.count.Load()), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAcquireRespectsPersistedCount(t *testing.T) {
	counter := &fakeCounter{}
	counter.count.Store(2)
	l := NewLimiter(counter, 3, WithClock(fixedClock(time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC))))

	ok, err := l.MayAttempt(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	// Slot held: nothing left today
	ok, err = l.MayAttempt(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsQuotaExceeded(err))
}

func TestReleaseReturnsSlotAndIsIdempotent(t *testing.T) {
	l := NewLimiter(&fakeCounter{}, 1, WithClock(fixedClock(time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC))))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	_, err = l.Acquire(context.Background())
	require.Error(t, err)

	release()
	release() // double release must not free a second slot

	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release2()

	_, err = l.Acquire(context.Background())
	require.Error(t, err)
}

func TestConcurrentAcquiresNeverExceedLimit(t *testing.T) {
	const limit = 3
	l := NewLimiter(&fakeCounter{}, limit, WithClock(fixedClock(time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC))))

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(context.Background()); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), granted.Load())
}

func TestNewDayResetsQuota(t *testing.T) {
	counter := &fakeCounter{}
	now := time.Date(2025, 1, 28, 23, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	l := NewLimiter(counter, 1, WithClock(clock))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	_ = release // still held across midnight

	_, err = l.Acquire(context.Background())
	require.Error(t, err)

	mu.Lock()
	now = now.Add(2 * time.Hour) // next civil day
	mu.Unlock()

	release2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestZeroLimitRejectsEverything(t *testing.T) {
	l := NewLimiter(&fakeCounter{}, 0)

	ok, err := l.MayAttempt(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsQuotaExceeded(err))
}
