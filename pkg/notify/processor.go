package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memberhq/memberkit/pkg/email"
	"github.com/memberhq/memberkit/pkg/queue"
	"github.com/memberhq/memberkit/pkg/sms"
)

// Processor executes a single delivery job against the channel adapters.
// The same code runs on both paths: as the queue worker handler and
// inline on the direct path when the broker is down.
type Processor struct {
	email  email.EmailSender
	sms    sms.SMSSender
	inbox  InboxStorage
	logger *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor builds a processor. The inbox store is required; the
// email and sms adapters may be nil when those channels are disabled, in
// which case jobs for them fail with ErrSenderNotConfigured.
func NewProcessor(emailSender email.EmailSender, smsSender sms.SMSSender, inbox InboxStorage, opts ...ProcessorOption) (*Processor, error) {
	if inbox == nil {
		return nil, fmt.Errorf("%w: inbox storage", ErrDependencyNil)
	}

	p := &Processor{
		email:  emailSender,
		sms:    smsSender,
		inbox:  inbox,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process delivers one job. An error means this recipient's delivery
// failed; callers tally it, the queue worker retries it.
func (p *Processor) Process(ctx context.Context, job DeliveryJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	switch job.Channel {
	case ChannelEmail:
		if job.RecipientEmail == "" {
			return fmt.Errorf("%w: notification %s recipient %s", ErrMissingEmail, job.NotificationID, job.RecipientID)
		}
		if p.email == nil {
			return fmt.Errorf("%w: email", ErrSenderNotConfigured)
		}
		return p.email.SendEmail(ctx, email.SendEmailParams{
			SendTo:   job.RecipientEmail,
			Subject:  job.Title,
			BodyHTML: job.Message,
			Tag:      "notification",
		})

	case ChannelSMS:
		if job.RecipientPhone == "" {
			return fmt.Errorf("%w: notification %s recipient %s", ErrMissingPhone, job.NotificationID, job.RecipientID)
		}
		if p.sms == nil {
			return fmt.Errorf("%w: sms", ErrSenderNotConfigured)
		}
		return p.sms.SendSMS(ctx, sms.SendSMSParams{
			SendTo: job.RecipientPhone,
			Text:   job.Title + "\n\n" + job.Message,
		})

	case ChannelInApp:
		return p.inbox.Upsert(ctx, job.RecipientID, job.NotificationID)

	case ChannelWhatsApp:
		p.logger.InfoContext(ctx, "whatsapp delivery not implemented, skipping",
			slog.String("notification_id", job.NotificationID),
			slog.String("recipient_id", job.RecipientID),
		)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedChannel, job.Channel)
	}
}

// Handler adapts the processor for worker registration. The task name is
// derived from the DeliveryJob type, matching what the broker submits.
func (p *Processor) Handler() queue.Handler {
	return queue.NewTaskHandler(func(ctx context.Context, job DeliveryJob) error {
		return p.Process(ctx, job)
	})
}
