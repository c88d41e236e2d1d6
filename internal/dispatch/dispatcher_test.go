package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/provenance/internal/dispatch"
	apperrors "github.com/allisson/provenance/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDispatcher_SubmitAndWaitAll(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 4, nil)
	defer d.Close()

	const jobs = 50
	var executed atomic.Int64
	ids := make(map[uuid.UUID]bool, jobs)

	for i := 0; i < jobs; i++ {
		id, err := d.Submit(func(ctx context.Context) error {
			executed.Add(1)
			return nil
		})
		require.NoError(t, err)
		ids[id] = true
	}
	assert.Len(t, ids, jobs)

	outcomes := d.WaitAll()
	assert.Len(t, outcomes, jobs)
	assert.Equal(t, int64(jobs), executed.Load())

	for _, outcome := range outcomes {
		assert.True(t, outcome.Success())
		assert.True(t, ids[outcome.TaskID])
	}
}

func TestDispatcher_OutcomeCarriesJobError(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 2, nil)
	defer d.Close()

	jobErr := errors.New("gateway unreachable")
	id, err := d.Submit(func(ctx context.Context) error {
		return jobErr
	})
	require.NoError(t, err)

	outcomes := d.WaitAll()
	require.Len(t, outcomes, 1)
	assert.Equal(t, id, outcomes[0].TaskID)
	assert.False(t, outcomes[0].Success())
	assert.True(t, apperrors.Is(outcomes[0].Err, jobErr))
}

func TestDispatcher_PanicBecomesOutcome(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 2, nil)
	defer d.Close()

	_, err := d.Submit(func(ctx context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	outcomes := d.WaitAll()
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success())
	assert.Contains(t, outcomes[0].Err.Error(), "task panicked")
}

func TestDispatcher_SubmitNeverBlocks(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 1, nil)
	defer d.Close()

	// Block the single worker so every later submission stays queued.
	release := make(chan struct{})
	_, err := d.Submit(func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_, err := d.Submit(func(ctx context.Context) error { return nil })
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submissions blocked while worker was busy")
	}

	close(release)
	outcomes := d.WaitAll()
	assert.Len(t, outcomes, 101)
}

func TestDispatcher_WaitAllClearsPendingSet(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 2, nil)
	defer d.Close()

	_, err := d.Submit(func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	first := d.WaitAll()
	assert.Len(t, first, 1)

	// A second wait only reports jobs submitted after the first.
	second := d.WaitAll()
	assert.Empty(t, second)

	_, err = d.Submit(func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	third := d.WaitAll()
	assert.Len(t, third, 1)
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 2, nil)
	d.Close()

	id, err := d.Submit(func(ctx context.Context) error { return nil })
	assert.Equal(t, uuid.Nil, id)
	assert.True(t, apperrors.Is(err, dispatch.ErrDispatcherClosed))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestDispatcher_CloseDrainsQueuedJobs(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 1, nil)

	var executed atomic.Int64
	for i := 0; i < 20; i++ {
		_, err := d.Submit(func(ctx context.Context) error {
			executed.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	d.Close()
	assert.Equal(t, int64(20), executed.Load())
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 2, nil)
	d.Close()
	d.Close()
}

func TestDispatcher_ConcurrentSubmitters(t *testing.T) {
	d := dispatch.NewDispatcher(context.Background(), 4, nil)
	defer d.Close()

	const submitters = 8
	const jobsEach = 25

	var wg sync.WaitGroup
	wg.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < jobsEach; j++ {
				_, err := d.Submit(func(ctx context.Context) error { return nil })
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	outcomes := d.WaitAll()
	assert.Len(t, outcomes, submitters*jobsEach)
}
