package notify

import (
	"fmt"
	"time"
)

// Channel is a delivery medium. The set is closed: every switch over it
// carries a default returning ErrUnsupportedChannel so a new channel is a
// compile-visible, test-visible change.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelInApp Channel = "IN_APP"
	// ChannelWhatsApp is recognized but not implemented: jobs for it
	// complete without error and without delivering anything.
	ChannelWhatsApp Channel = "WHATSAPP"
)

// Valid reports whether the channel is a known variant.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp, ChannelWhatsApp:
		return true
	default:
		return false
	}
}

// TargetType is the recipient-selection strategy.
type TargetType string

const (
	TargetAllMembers TargetType = "ALL_MEMBERS"
	TargetRegion     TargetType = "REGION"
	TargetScope      TargetType = "SCOPE"
	TargetUser       TargetType = "USER"
)

// Valid reports whether the target type is a known variant.
func (t TargetType) Valid() bool {
	switch t {
	case TargetAllMembers, TargetRegion, TargetScope, TargetUser:
		return true
	default:
		return false
	}
}

// RequiresID reports whether the target type needs a TargetID. For
// ALL_MEMBERS a TargetID is forbidden.
func (t TargetType) RequiresID() bool {
	switch t {
	case TargetRegion, TargetScope, TargetUser:
		return true
	default:
		return false
	}
}

// Status is the notification lifecycle state: PENDING until dispatched,
// then SENT or FAILED. Partial per-recipient failure does not get its own
// status; it is visible only through the counters.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// MetadataUserIDsKey is the metadata key carrying an explicit user-id
// list for multi-user USER fan-out.
const MetadataUserIDsKey = "user_ids"

// Notification is the persisted dispatch record. Once Status leaves
// PENDING, SuccessCount+FailedCount == RecipientCount.
type Notification struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Channel        Channel        `json:"channel"`
	Target         TargetType     `json:"target"`
	TargetID       string         `json:"target_id,omitempty"`
	Status         Status         `json:"status"`
	RecipientCount int            `json:"recipient_count"`
	SuccessCount   int            `json:"success_count"`
	FailedCount    int            `json:"failed_count"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// MetadataUserIDs extracts the user-id list from metadata. JSON decoding
// delivers []any, direct construction []string; both are accepted.
func (n *Notification) MetadataUserIDs() []string {
	raw, ok := n.Metadata[MetadataUserIDsKey]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
		return ids
	default:
		return nil
	}
}

// Recipient is one concrete delivery target produced by the resolver.
// It is transient: never persisted by this engine.
type Recipient struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DeliveryJob is the per-recipient unit of work submitted to the queue
// broker. For in-app jobs the idempotency key is
// (RecipientID, NotificationID): reprocessing resets the unread flag
// instead of duplicating the record.
type DeliveryJob struct {
	NotificationID string  `json:"notification_id"`
	Channel        Channel `json:"channel"`
	RecipientID    string  `json:"recipient_id"`
	RecipientEmail string  `json:"recipient_email,omitempty"`
	RecipientPhone string  `json:"recipient_phone,omitempty"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
}

// Validate checks the job's identity fields. Channel-specific address
// requirements are enforced by the Processor so they count as delivery
// failures, not submission failures.
func (j DeliveryJob) Validate() error {
	if j.NotificationID == "" {
		return fmt.Errorf("%w: notification id is required", ErrInvalidJob)
	}
	if j.RecipientID == "" {
		return fmt.Errorf("%w: recipient id is required", ErrInvalidJob)
	}
	if !j.Channel.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedChannel, j.Channel)
	}
	return nil
}
