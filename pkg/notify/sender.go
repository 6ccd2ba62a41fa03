package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/memberhq/memberkit/pkg/async"
)

// Broker is the submission side of the queue broker the sender needs.
// Available reflects the broker's pessimistic health view; Submit
// refuses when the backend is considered down.
type Broker interface {
	Available() bool
	Submit(ctx context.Context, payload any) error
}

// Sender is the dispatch coordinator. It owns the one transition out of
// PENDING: resolve recipients, fan delivery out per recipient, settle
// every outcome, persist the tallies.
type Sender struct {
	storage   Storage
	resolver  *Resolver
	policy    *Policy
	broker    Broker
	processor *Processor
	logger    *slog.Logger
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithSenderLogger sets the logger.
func WithSenderLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSender builds a dispatch coordinator. The broker may be nil, which
// pins every dispatch to the direct path.
func NewSender(storage Storage, resolver *Resolver, policy *Policy, broker Broker, processor *Processor, opts ...SenderOption) (*Sender, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: storage", ErrDependencyNil)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: resolver", ErrDependencyNil)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy", ErrDependencyNil)
	}
	if processor == nil {
		return nil, fmt.Errorf("%w: processor", ErrDependencyNil)
	}

	s := &Sender{
		storage:   storage,
		resolver:  resolver,
		policy:    policy,
		broker:    broker,
		processor: processor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send dispatches a PENDING notification and returns the updated record.
//
// Failures before fan-out (missing record, wrong status, resolution
// errors) leave the notification PENDING and are returned to the caller.
// Once fan-out starts, per-recipient failures are tallied rather than
// raised and the notification always lands on SENT; only a failure of
// the dispatch operation itself (persisting the outcome) marks it
// FAILED.
func (s *Sender) Send(ctx context.Context, id string) (*Notification, error) {
	n, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusPending {
		return nil, fmt.Errorf("%w: notification %s is %s", ErrNotPending, id, n.Status)
	}

	recipients, err := s.resolver.Resolve(ctx, *n)
	if err != nil {
		return nil, err
	}

	queued := s.broker != nil && s.broker.Available()

	deliver := s.processInline
	if queued {
		deliver = s.submitToBroker
	}

	futures := make([]*async.Future[struct{}], 0, len(recipients))
	skipped := 0
	for _, rcpt := range recipients {
		if !s.policy.Enabled(n.Channel) {
			skipped++
			continue
		}
		futures = append(futures, async.Async(ctx, s.buildJob(n, rcpt), deliver))
	}

	success, failed := 0, 0
	for _, res := range async.SettleAll(futures...) {
		if res.Err != nil {
			failed++
		} else {
			success++
		}
	}

	if skipped > 0 {
		s.logger.InfoContext(ctx, "recipients skipped by channel policy",
			slog.String("notification_id", n.ID),
			slog.String("channel", string(n.Channel)),
			slog.Int("skipped", skipped),
		)
	}

	now := time.Now()
	sent := StatusSent
	attempted := success + failed
	update := UpdateFields{
		Status:         &sent,
		RecipientCount: &attempted,
		SuccessCount:   &success,
		FailedCount:    &failed,
		SentAt:         &now,
	}
	if err := s.storage.Update(ctx, n.ID, update); err != nil {
		s.markFailed(ctx, n.ID)
		return nil, fmt.Errorf("failed to persist dispatch outcome: %w", err)
	}

	mode := "direct"
	if queued {
		mode = "queued"
	}
	s.logger.InfoContext(ctx, "notification dispatched",
		slog.String("notification_id", n.ID),
		slog.String("channel", string(n.Channel)),
		slog.String("mode", mode),
		slog.Int("recipients", attempted),
		slog.Int("success", success),
		slog.Int("failed", failed),
	)

	n.Status = StatusSent
	n.RecipientCount = attempted
	n.SuccessCount = success
	n.FailedCount = failed
	n.SentAt = &now
	return n, nil
}

func (s *Sender) buildJob(n *Notification, rcpt Recipient) DeliveryJob {
	return DeliveryJob{
		NotificationID: n.ID,
		Channel:        n.Channel,
		RecipientID:    rcpt.ID,
		RecipientEmail: rcpt.Email,
		RecipientPhone: rcpt.Phone,
		Title:          n.Title,
		Message:        n.Message,
	}
}

func (s *Sender) submitToBroker(ctx context.Context, job DeliveryJob) (struct{}, error) {
	return struct{}{}, s.broker.Submit(ctx, job)
}

func (s *Sender) processInline(ctx context.Context, job DeliveryJob) (struct{}, error) {
	return struct{}{}, s.processor.Process(ctx, job)
}

// markFailed is best effort: the notification is already in an
// inconsistent spot, so a second storage failure is only logged.
func (s *Sender) markFailed(ctx context.Context, id string) {
	failed := StatusFailed
	if err := s.storage.Update(ctx, id, UpdateFields{Status: &failed}); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark notification as failed",
			slog.String("notification_id", id),
			slog.Any("error", err),
		)
	}
}
