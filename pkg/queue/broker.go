package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"syscall"
	"time"
)

// Submitter is the enqueue-side contract the Broker fronts. *Enqueuer
// satisfies it.
type Submitter interface {
	Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error
}

// PingFunc is a lightweight liveness check against the queue backend.
type PingFunc func(ctx context.Context) error

// Health is a point-in-time snapshot of the broker's believed
// reachability.
type Health struct {
	Available bool
	CheckedAt time.Time
}

// Broker fronts a Submitter with availability tracking so callers can
// decide between queued and direct delivery before building any job.
//
// Health is pessimistic: the broker starts unavailable and availability
// is only earned by a successful probe or submission. Any
// connection-class submission error clears it again. All transitions go
// through a single function over an atomically swapped snapshot, so
// concurrent submissions and probes never race on partial state.
type Broker struct {
	submitter Submitter
	ping      PingFunc
	logger    *slog.Logger

	health      atomic.Pointer[Health]
	lastConnLog atomic.Int64

	probeInterval   time.Duration
	probeRetryDelay time.Duration
	errLogInterval  time.Duration
	submitOpts      []EnqueueOption
}

// NewBroker creates a broker over the given submitter and liveness probe.
// The broker starts unavailable; call Probe or Start to earn availability.
func NewBroker(submitter Submitter, ping PingFunc, opts ...BrokerOption) (*Broker, error) {
	if submitter == nil {
		return nil, ErrSubmitterNil
	}
	if ping == nil {
		return nil, ErrPingerNil
	}

	b := &Broker{
		submitter:       submitter,
		ping:            ping,
		logger:          slog.Default(),
		probeInterval:   15 * time.Second,
		probeRetryDelay: 5 * time.Second,
		errLogInterval:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.health.Store(&Health{Available: false, CheckedAt: time.Now()})
	return b, nil
}

// Available reports the broker's current believed reachability.
func (b *Broker) Available() bool {
	return b.health.Load().Available
}

// Health returns the current health snapshot.
func (b *Broker) Health() Health {
	return *b.health.Load()
}

// Probe runs one liveness check and updates health accordingly.
func (b *Broker) Probe(ctx context.Context) bool {
	if err := b.ping(ctx); err != nil {
		b.transition(false)
		b.logConnErr(err)
		return false
	}
	b.transition(true)
	return true
}

// Start launches the background probe loop. The initial probe gets one
// fixed-delay retry before the broker settles into unavailable; after
// that the loop re-probes on an interval whenever availability has been
// lost. It returns once the loop has been started and stops when the
// context is canceled.
func (b *Broker) Start(ctx context.Context) {
	go func() {
		if !b.Probe(ctx) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.probeRetryDelay):
				b.Probe(ctx)
			}
		}

		ticker := time.NewTicker(b.probeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !b.Available() {
					b.Probe(ctx)
				}
			}
		}
	}()
}

// Submit enqueues a payload through the broker. While the broker is
// unavailable it refuses immediately with ErrBrokerUnavailable instead of
// buffering client-side; callers are expected to check Available first
// and fall back to direct delivery.
func (b *Broker) Submit(ctx context.Context, payload any) error {
	if !b.Available() {
		return ErrBrokerUnavailable
	}

	err := b.submitter.Enqueue(ctx, payload, b.submitOpts...)
	if err == nil {
		b.transition(true)
		return nil
	}

	if isConnErr(err) {
		b.transition(false)
		b.logConnErr(err)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	// Non-connection errors are per-job failures; the backend itself is
	// still considered reachable.
	return err
}

// transition is the single writer of the health snapshot.
func (b *Broker) transition(available bool) {
	prev := b.health.Load()
	next := &Health{Available: available, CheckedAt: time.Now()}
	b.health.Store(next)

	if prev.Available != available {
		if available {
			b.logger.Info("queue broker available")
		} else {
			b.logger.Warn("queue broker unavailable, falling back to direct delivery")
		}
	}
}

// logConnErr logs broker-unreachable errors at most once per interval to
// keep a flapping broker from flooding the logs.
func (b *Broker) logConnErr(err error) {
	now := time.Now().UnixNano()
	last := b.lastConnLog.Load()
	if now-last < int64(b.errLogInterval) {
		return
	}
	if !b.lastConnLog.CompareAndSwap(last, now) {
		return
	}
	b.logger.Error("queue broker unreachable", slog.String("error", err.Error()))
}

// isConnErr classifies errors that indicate the backend itself is
// unreachable, as opposed to a problem with the submitted job.
func isConnErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// BrokerOption is a functional option for configuring a Broker.
type BrokerOption func(*Broker)

// WithProbeInterval sets how often the probe loop re-checks a lost broker.
func WithProbeInterval(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.probeInterval = d
		}
	}
}

// WithProbeRetryDelay sets the fixed delay before the startup probe's
// single retry.
func WithProbeRetryDelay(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.probeRetryDelay = d
		}
	}
}

// WithErrorLogInterval sets the minimum gap between broker-unreachable
// log lines.
func WithErrorLogInterval(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.errLogInterval = d
		}
	}
}

// WithSubmitOptions sets enqueue options applied to every submission,
// such as the retry budget or target queue.
func WithSubmitOptions(opts ...EnqueueOption) BrokerOption {
	return func(b *Broker) {
		b.submitOpts = opts
	}
}

// WithBrokerLogger sets the logger for the broker.
func WithBrokerLogger(logger *slog.Logger) BrokerOption {
	return func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	}
}
