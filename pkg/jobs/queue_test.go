package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})

	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: fmt.Sprintf("job-%d", i), Type: "noop"}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 5)
}

func TestQueueEnqueueAfterStopFails(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	q.Stop()

	require.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "noop"}))
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)
}
