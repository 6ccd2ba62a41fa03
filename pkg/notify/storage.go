package notify

import (
	"context"
	"time"
)

// UpdateFields is a partial update of a notification record. Nil fields
// are left untouched.
type UpdateFields struct {
	Status         *Status
	RecipientCount *int
	SuccessCount   *int
	FailedCount    *int
	SentAt         *time.Time
}

// Filter narrows List results. Zero values mean "no constraint"; Limit 0
// means no limit.
type Filter struct {
	Status  Status
	Channel Channel
	Limit   int
	Offset  int
}

// Storage persists notification records. Implementations must return
// ErrNotFound for unknown ids.
type Storage interface {
	Create(ctx context.Context, n Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	Update(ctx context.Context, id string, fields UpdateFields) error
	List(ctx context.Context, f Filter) ([]Notification, error)
}

// InboxItem is one in-app notification as seen by a user. The pair
// (UserID, NotificationID) is unique.
type InboxItem struct {
	UserID         string     `json:"user_id"`
	NotificationID string     `json:"notification_id"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InboxListOptions narrows inbox listings.
type InboxListOptions struct {
	OnlyUnread bool
	Limit      int
	Offset     int
}

// InboxStorage persists the per-user in-app projection. Upsert is the
// idempotent write used by delivery: a repeat for the same
// (userID, notificationID) resets the record to unread instead of
// inserting a duplicate, so queue retries are safe.
type InboxStorage interface {
	Upsert(ctx context.Context, userID, notificationID string) error
	List(ctx context.Context, userID string, opts InboxListOptions) ([]InboxItem, error)
	MarkRead(ctx context.Context, userID string, notificationIDs ...string) error
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
