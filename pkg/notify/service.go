package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CreateParams describes a notification to create.
type CreateParams struct {
	Title    string
	Message  string
	Channel  Channel
	Target   TargetType
	TargetID string
	Metadata map[string]any
}

// Validate checks the parameters against the target and channel rules.
func (p CreateParams) Validate() error {
	if p.Title == "" {
		return ErrTitleRequired
	}
	if p.Message == "" {
		return ErrMessageRequired
	}
	if !p.Channel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, p.Channel)
	}
	if !p.Target.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, p.Target)
	}
	if p.Target == TargetAllMembers && p.TargetID != "" {
		return fmt.Errorf("%w: ALL_MEMBERS", ErrTargetIDForbidden)
	}
	if p.Target.RequiresID() && p.TargetID == "" {
		// USER may name its recipients through metadata instead.
		ids := (&Notification{Metadata: p.Metadata}).MetadataUserIDs()
		if p.Target == TargetUser && len(ids) > 0 {
			return nil
		}
		return fmt.Errorf("%w: %s target", ErrTargetIDRequired, p.Target)
	}
	return nil
}

// Service is the application facade: notification lifecycle plus the
// per-user inbox operations.
type Service struct {
	storage Storage
	inbox   InboxStorage
	sender  *Sender
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds the notification service.
func NewService(storage Storage, inbox InboxStorage, sender *Sender, opts ...ServiceOption) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: storage", ErrDependencyNil)
	}
	if inbox == nil {
		return nil, fmt.Errorf("%w: inbox storage", ErrDependencyNil)
	}
	if sender == nil {
		return nil, fmt.Errorf("%w: sender", ErrDependencyNil)
	}

	s := &Service{
		storage: storage,
		inbox:   inbox,
		sender:  sender,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateNotification validates and persists a new PENDING notification.
func (s *Service) CreateNotification(ctx context.Context, p CreateParams) (*Notification, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := Notification{
		ID:        uuid.NewString(),
		Title:     p.Title,
		Message:   p.Message,
		Channel:   p.Channel,
		Target:    p.Target,
		TargetID:  p.TargetID,
		Status:    StatusPending,
		Metadata:  p.Metadata,
		CreatedAt: time.Now(),
	}
	if err := s.storage.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.InfoContext(ctx, "notification created",
		slog.String("notification_id", n.ID),
		slog.String("channel", string(n.Channel)),
		slog.String("target", string(n.Target)),
	)
	return &n, nil
}

// Send dispatches a pending notification.
func (s *Service) Send(ctx context.Context, id string) (*Notification, error) {
	return s.sender.Send(ctx, id)
}

// Get returns one notification by id.
func (s *Service) Get(ctx context.Context, id string) (*Notification, error) {
	return s.storage.Get(ctx, id)
}

// List returns notifications matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Notification, error) {
	return s.storage.List(ctx, f)
}

// Inbox returns a user's in-app notifications, newest first.
func (s *Service) Inbox(ctx context.Context, userID string, opts InboxListOptions) ([]InboxItem, error) {
	return s.inbox.List(ctx, userID, opts)
}

// MarkRead marks the given inbox entries read for the user.
func (s *Service) MarkRead(ctx context.Context, userID string, notificationIDs ...string) error {
	return s.inbox.MarkRead(ctx, userID, notificationIDs...)
}

// MarkAllRead marks the user's whole inbox read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.inbox.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread inbox count.
func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.inbox.CountUnread(ctx, userID)
}
