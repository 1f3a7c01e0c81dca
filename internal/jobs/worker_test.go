package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_EnqueueCancellable(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	started := make(chan struct{})
	finished := make(chan error, 1)
	cancel := w.EnqueueCancellable("test", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	})

	<-started
	cancel()

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not observe cancellation")
	}
}

func TestWorker_StatsCountFailuresAndPanics(t *testing.T) {
	w := NewWorker(1)

	done := make(chan struct{}, 3)
	w.Enqueue(func(ctx context.Context) error { done <- struct{}{}; return nil })
	w.Enqueue(func(ctx context.Context) error { done <- struct{}{}; return errors.New("boom") })
	w.Enqueue(func(ctx context.Context) error { done <- struct{}{}; panic("bad") })

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not run")
		}
	}

	require.Eventually(t, func() bool {
		return w.GetStats().CompletedJobs == 3
	}, 2*time.Second, 10*time.Millisecond)

	stats := w.GetStats()
	assert.Equal(t, int64(2), stats.FailedJobs)
	assert.Equal(t, 0, stats.ActiveJobs)
	w.Shutdown()
}
