package notify

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDirectory is an in-memory Directory for tests and local
// development.
type MemoryDirectory struct {
	mu      sync.RWMutex
	members []Member
	users   map[string]User
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]User)}
}

// AddMembers registers members in the directory.
func (d *MemoryDirectory) AddMembers(members ...Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = append(d.members, members...)
}

// AddUsers registers users in the directory.
func (d *MemoryDirectory) AddUsers(users ...User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range users {
		d.users[u.ID] = u
	}
}

func (d *MemoryDirectory) ListActiveMembers(_ context.Context, f MemberFilter) ([]Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Member, 0, len(d.members))
	for _, m := range d.members {
		if !m.Active {
			continue
		}
		if f.Province != "" && m.Province != f.Province {
			continue
		}
		if f.Scope != "" && m.Province != f.Scope && m.District != f.Scope {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (d *MemoryDirectory) ListActiveUsers(_ context.Context, ids []string) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, ok := d.users[id]
		if !ok || !u.Active {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (d *MemoryDirectory) FindUser(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok || !u.Active {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return &u, nil
}
