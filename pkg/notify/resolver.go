package notify

import (
	"context"
	"fmt"
)

// Resolver expands a notification's target specification into concrete
// recipients. Resolution failures leave the notification PENDING so the
// caller can retry after fixing the target.
type Resolver struct {
	directory Directory
}

// NewResolver builds a resolver over the membership directory.
func NewResolver(directory Directory) (*Resolver, error) {
	if directory == nil {
		return nil, fmt.Errorf("%w: directory", ErrDependencyNil)
	}
	return &Resolver{directory: directory}, nil
}

// Resolve returns the recipient list for the notification. An empty list
// is a valid outcome, not an error: dispatch then completes with zero
// counts.
func (r *Resolver) Resolve(ctx context.Context, n Notification) ([]Recipient, error) {
	switch n.Target {
	case TargetAllMembers:
		// Members are register entries, not platform accounts, so an
		// in-app broadcast to the whole register has nobody to write
		// inbox rows for.
		if n.Channel == ChannelInApp {
			return []Recipient{}, nil
		}
		return r.members(ctx, MemberFilter{})

	case TargetRegion:
		if n.TargetID == "" {
			return nil, fmt.Errorf("%w: REGION target", ErrTargetIDRequired)
		}
		return r.members(ctx, MemberFilter{Province: n.TargetID})

	case TargetScope:
		if n.TargetID == "" {
			return nil, fmt.Errorf("%w: SCOPE target", ErrTargetIDRequired)
		}
		return r.members(ctx, MemberFilter{Scope: n.TargetID})

	case TargetUser:
		return r.users(ctx, n)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, n.Target)
	}
}

func (r *Resolver) members(ctx context.Context, f MemberFilter) ([]Recipient, error) {
	members, err := r.directory.ListActiveMembers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	recipients := make([]Recipient, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, Recipient{ID: m.ID, Email: m.Email, Phone: m.Phone})
	}
	return recipients, nil
}

// users handles the USER target. A user_ids metadata list takes
// precedence over TargetID and fans out to every resolvable user; a
// list that resolves to nobody is an error so the mistake is visible
// instead of silently dispatching to zero recipients.
func (r *Resolver) users(ctx context.Context, n Notification) ([]Recipient, error) {
	if ids := n.MetadataUserIDs(); len(ids) > 0 {
		users, err := r.directory.ListActiveUsers(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			return nil, fmt.Errorf("%w: none of %d user ids resolved", ErrNoRecipients, len(ids))
		}

		recipients := make([]Recipient, 0, len(users))
		for _, u := range users {
			recipients = append(recipients, Recipient{ID: u.ID, Email: u.Email, Phone: u.Phone})
		}
		return recipients, nil
	}

	if n.TargetID == "" {
		return nil, fmt.Errorf("%w: USER target", ErrTargetIDRequired)
	}

	u, err := r.directory.FindUser(ctx, n.TargetID)
	if err != nil {
		return nil, err
	}
	return []Recipient{{ID: u.ID, Email: u.Email, Phone: u.Phone}}, nil
}
