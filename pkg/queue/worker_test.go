package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerPayload struct {
	Value string `json:"value"`
}

func TestNewWorker_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewWorker(nil)
	assert.ErrorIs(t, err, ErrRepositoryNil)
}

func TestWorker_RequiresHandlers(t *testing.T) {
	t.Parallel()

	w, err := NewWorker(NewMemoryStorage())
	require.NoError(t, err)

	assert.ErrorIs(t, w.Start(context.Background()), ErrNoHandlers)
}

func TestWorker_ProcessesTask(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()

	enq, err := NewEnqueuer(ms)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), workerPayload{Value: "ping"}))

	var mu sync.Mutex
	var got []string

	w, err := NewWorker(ms, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	w.RegisterHandlers(NewTaskHandler(func(ctx context.Context, p workerPayload) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p.Value)
		return nil
	}))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"ping"}, got)
}

func TestWorker_FailedTaskIsRetriedThenDeadLettered(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()

	enq, err := NewEnqueuer(ms)
	require.NoError(t, err)
	// One retry only so the test does not sit out the backoff schedule.
	require.NoError(t, enq.Enqueue(context.Background(), workerPayload{Value: "doomed"}, WithMaxRetries(1)))

	var mu sync.Mutex
	attempts := 0

	w, err := NewWorker(ms, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	w.RegisterHandlers(NewTaskHandler(func(ctx context.Context, p workerPayload) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("provider down")
	}))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(ms.DeadTasks()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "provider down", ms.DeadTasks()[0].Error)
}

func TestWorker_MissingHandlerGoesToDLQ(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()

	enq, err := NewEnqueuer(ms)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), workerPayload{}, WithTaskName("unknown.task")))

	w, err := NewWorker(ms, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	// Register a handler for a different task so the worker can start.
	w.RegisterHandlers(NewTaskHandler(func(ctx context.Context, p workerPayload) error {
		return nil
	}))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(ms.DeadTasks()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorker_StopWaitsForInflightTask(t *testing.T) {
	t.Parallel()

	ms := NewMemoryStorage()
	defer ms.Close()

	enq, err := NewEnqueuer(ms)
	require.NoError(t, err)
	require.NoError(t, enq.Enqueue(context.Background(), workerPayload{}))

	started := make(chan struct{})
	finished := make(chan struct{})

	w, err := NewWorker(ms, WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	w.RegisterHandlers(NewTaskHandler(func(ctx context.Context, p workerPayload) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return nil
	}))

	require.NoError(t, w.Start(context.Background()))
	<-started
	require.NoError(t, w.Stop())

	// Stop must not return before the handler did.
	select {
	case <-finished:
	default:
		t.Fatal("worker stopped before in-flight task finished")
	}
}
