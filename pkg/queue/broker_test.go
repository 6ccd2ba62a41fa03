package queue

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberhq/memberkit/pkg/logger"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func okPing(context.Context) error { return nil }

func failPing(context.Context) error {
	return &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
}

func TestNewBroker_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewBroker(nil, okPing)
	assert.ErrorIs(t, err, ErrSubmitterNil)

	_, err = NewBroker(&fakeSubmitter{}, nil)
	assert.ErrorIs(t, err, ErrPingerNil)
}

func TestBroker_StartsUnavailable(t *testing.T) {
	t.Parallel()

	b, err := NewBroker(&fakeSubmitter{}, okPing)
	require.NoError(t, err)

	assert.False(t, b.Available())
	assert.ErrorIs(t, b.Submit(context.Background(), "payload"), ErrBrokerUnavailable)
}

func TestBroker_ProbeEarnsAvailability(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b, err := NewBroker(sub, okPing)
	require.NoError(t, err)

	assert.True(t, b.Probe(context.Background()))
	assert.True(t, b.Available())

	require.NoError(t, b.Submit(context.Background(), "payload"))
	assert.Equal(t, 1, sub.callCount())
}

func TestBroker_ProbeFailureStaysUnavailable(t *testing.T) {
	t.Parallel()

	b, err := NewBroker(&fakeSubmitter{}, failPing)
	require.NoError(t, err)

	assert.False(t, b.Probe(context.Background()))
	assert.False(t, b.Available())
}

func TestBroker_ConnErrorFlipsHealth(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{err: &net.OpError{Op: "write", Err: syscall.ECONNREFUSED}}
	b, err := NewBroker(sub, okPing)
	require.NoError(t, err)

	require.True(t, b.Probe(context.Background()))

	err = b.Submit(context.Background(), "payload")
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.False(t, b.Available())

	// The next submission is refused without touching the backend.
	calls := sub.callCount()
	assert.ErrorIs(t, b.Submit(context.Background(), "payload"), ErrBrokerUnavailable)
	assert.Equal(t, calls, sub.callCount())
}

func TestBroker_JobErrorDoesNotTouchHealth(t *testing.T) {
	t.Parallel()

	jobErr := errors.New("payload too large")
	sub := &fakeSubmitter{err: jobErr}
	b, err := NewBroker(sub, okPing)
	require.NoError(t, err)

	require.True(t, b.Probe(context.Background()))

	err = b.Submit(context.Background(), "payload")
	assert.ErrorIs(t, err, jobErr)
	assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	assert.True(t, b.Available())
}

func TestBroker_SubmitSuccessReearnsHealth(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b, err := NewBroker(sub, okPing)
	require.NoError(t, err)
	require.True(t, b.Probe(context.Background()))

	require.NoError(t, b.Submit(context.Background(), "payload"))
	assert.True(t, b.Available())

	health := b.Health()
	assert.True(t, health.Available)
	assert.WithinDuration(t, time.Now(), health.CheckedAt, time.Second)
}

func TestBroker_RateLimitedConnErrorLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithTextFormatter())

	b, err := NewBroker(&fakeSubmitter{}, failPing,
		WithBrokerLogger(log),
		WithErrorLogInterval(time.Hour),
	)
	require.NoError(t, err)

	for range 5 {
		b.Probe(context.Background())
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "queue broker unreachable"))
}

func TestBroker_StartProbeLoop(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	healthy := false
	ping := func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if !healthy {
			return syscall.ECONNREFUSED
		}
		return nil
	}

	b, err := NewBroker(&fakeSubmitter{}, ping,
		WithProbeInterval(20*time.Millisecond),
		WithProbeRetryDelay(10*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	// Stays unavailable while the backend is down.
	time.Sleep(100 * time.Millisecond)
	assert.False(t, b.Available())

	mu.Lock()
	healthy = true
	mu.Unlock()

	require.Eventually(t, func() bool { return b.Available() }, 2*time.Second, 10*time.Millisecond)
}

func TestIsConnErr(t *testing.T) {
	t.Parallel()

	assert.False(t, isConnErr(nil))
	assert.False(t, isConnErr(errors.New("validation failed")))
	assert.True(t, isConnErr(syscall.ECONNREFUSED))
	assert.True(t, isConnErr(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
}
