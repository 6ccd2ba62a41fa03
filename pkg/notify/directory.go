package notify

import "context"

// Member is a directory record for the membership register. Members may
// exist without a platform login, so they carry contact details but no
// guarantee of a user account.
type Member struct {
	ID       string
	Email    string
	Phone    string
	Province string
	District string
	Active   bool
}

// User is a platform account holder.
type User struct {
	ID     string
	Email  string
	Phone  string
	Active bool
}

// MemberFilter narrows member listings. Empty fields mean "no
// constraint". Scope matches a member whose Province or District equals
// the value, covering both organizational levels with one filter.
type MemberFilter struct {
	Province string
	Scope    string
}

// Directory is the read-only view of the membership register the
// resolver needs. Implementations return active records only.
type Directory interface {
	// ListActiveMembers returns active members matching the filter.
	ListActiveMembers(ctx context.Context, f MemberFilter) ([]Member, error)

	// ListActiveUsers returns the active users among the given ids.
	// Unknown or inactive ids are silently dropped.
	ListActiveUsers(ctx context.Context, ids []string) ([]User, error)

	// FindUser returns one user by id, ErrUserNotFound if missing or
	// inactive.
	FindUser(ctx context.Context, id string) (*User, error)
}
