package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage for tests and local development.
type MemoryStorage struct {
	mu            sync.RWMutex
	notifications map[string]Notification
}

// NewMemoryStorage creates an empty in-memory notification store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{notifications: make(map[string]Notification)}
}

func (s *MemoryStorage) Create(_ context.Context, n Notification) error {
	if n.ID == "" {
		return fmt.Errorf("notify: notification id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return fmt.Errorf("notify: notification %s already exists", n.ID)
	}
	s.notifications[n.ID] = n
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &n, nil
}

func (s *MemoryStorage) Update(_ context.Context, id string, fields UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if fields.Status != nil {
		n.Status = *fields.Status
	}
	if fields.RecipientCount != nil {
		n.RecipientCount = *fields.RecipientCount
	}
	if fields.SuccessCount != nil {
		n.SuccessCount = *fields.SuccessCount
	}
	if fields.FailedCount != nil {
		n.FailedCount = *fields.FailedCount
	}
	if fields.SentAt != nil {
		t := *fields.SentAt
		n.SentAt = &t
	}

	s.notifications[id] = n
	return nil
}

func (s *MemoryStorage) List(_ context.Context, f Filter) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if f.Status != "" && n.Status != f.Status {
			continue
		}
		if f.Channel != "" && n.Channel != f.Channel {
			continue
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Notification{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// MemoryInbox is an in-memory InboxStorage.
type MemoryInbox struct {
	mu    sync.RWMutex
	items map[string]map[string]InboxItem // userID -> notificationID
}

// NewMemoryInbox creates an empty in-memory inbox store.
func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{items: make(map[string]map[string]InboxItem)}
}

func (s *MemoryInbox) Upsert(_ context.Context, userID, notificationID string) error {
	if userID == "" || notificationID == "" {
		return fmt.Errorf("notify: user id and notification id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	byNotif, ok := s.items[userID]
	if !ok {
		byNotif = make(map[string]InboxItem)
		s.items[userID] = byNotif
	}

	item, exists := byNotif[notificationID]
	if !exists {
		item = InboxItem{
			UserID:         userID,
			NotificationID: notificationID,
			CreatedAt:      now,
		}
	}
	item.Read = false
	item.ReadAt = nil
	item.UpdatedAt = now
	byNotif[notificationID] = item
	return nil
}

func (s *MemoryInbox) List(_ context.Context, userID string, opts InboxListOptions) ([]InboxItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]InboxItem, 0, len(s.items[userID]))
	for _, item := range s.items[userID] {
		if opts.OnlyUnread && item.Read {
			continue
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []InboxItem{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryInbox) MarkRead(_ context.Context, userID string, notificationIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNotif := s.items[userID]
	now := time.Now()
	for _, id := range notificationIDs {
		item, ok := byNotif[id]
		if !ok || item.Read {
			continue
		}
		item.Read = true
		item.ReadAt = &now
		item.UpdatedAt = now
		byNotif[id] = item
	}
	return nil
}

func (s *MemoryInbox) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, item := range s.items[userID] {
		if item.Read {
			continue
		}
		item.Read = true
		item.ReadAt = &now
		item.UpdatedAt = now
		s.items[userID][id] = item
	}
	return nil
}

func (s *MemoryInbox) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items[userID] {
		if !item.Read {
			count++
		}
	}
	return count, nil
}
