package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingRepo struct {
	created []*Task
	err     error
}

func (r *capturingRepo) CreateTask(ctx context.Context, task *Task) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, task)
	return nil
}

type testPayload struct {
	Value string `json:"value"`
}

func TestNewEnqueuer_NilRepo(t *testing.T) {
	t.Parallel()

	_, err := NewEnqueuer(nil)
	assert.ErrorIs(t, err, ErrRepositoryNil)
}

func TestEnqueue_Defaults(t *testing.T) {
	t.Parallel()

	repo := &capturingRepo{}
	enq, err := NewEnqueuer(repo)
	require.NoError(t, err)

	require.NoError(t, enq.Enqueue(context.Background(), testPayload{Value: "hello"}))
	require.Len(t, repo.created, 1)

	task := repo.created[0]
	assert.Equal(t, DefaultQueueName, task.Queue)
	assert.Equal(t, "queue.testPayload", task.TaskName)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, DefaultMaxRetries, task.MaxRetries)
	assert.Zero(t, task.RetryCount)

	var decoded testPayload
	require.NoError(t, json.Unmarshal(task.Payload, &decoded))
	assert.Equal(t, "hello", decoded.Value)
}

func TestEnqueue_Options(t *testing.T) {
	t.Parallel()

	repo := &capturingRepo{}
	enq, err := NewEnqueuer(repo, WithDefaultQueue("notifications"))
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, enq.Enqueue(context.Background(), testPayload{},
		WithQueue("urgent"),
		WithMaxRetries(5),
		WithDelay(time.Minute),
		WithTaskName("custom.name"),
	))

	task := repo.created[0]
	assert.Equal(t, "urgent", task.Queue)
	assert.Equal(t, int8(5), task.MaxRetries)
	assert.Equal(t, "custom.name", task.TaskName)
	assert.True(t, task.ScheduledAt.After(before.Add(50*time.Second)))
}

func TestEnqueue_NilPayload(t *testing.T) {
	t.Parallel()

	enq, err := NewEnqueuer(&capturingRepo{})
	require.NoError(t, err)

	assert.ErrorIs(t, enq.Enqueue(context.Background(), nil), ErrPayloadNil)
}

func TestRetryBackoff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*time.Second, retryBackoff(1))
	assert.Equal(t, 4*time.Second, retryBackoff(2))
	assert.Equal(t, 8*time.Second, retryBackoff(3))
	assert.Equal(t, 2*time.Second, retryBackoff(0))
}
