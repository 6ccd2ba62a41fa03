package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_CreateAndGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage()
	ctx := context.Background()

	n := Notification{ID: "n1", Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers, Status: StatusPending, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, n))

	assert.Error(t, s.Create(ctx, n), "duplicate id is rejected")

	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_UpdateAppliesOnlySetFields(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, Notification{ID: "n1", Status: StatusPending, RecipientCount: 5}))

	sent := StatusSent
	now := time.Now()
	success := 4
	require.NoError(t, s.Update(ctx, "n1", UpdateFields{Status: &sent, SuccessCount: &success, SentAt: &now}))

	got, err := s.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, got.Status)
	assert.Equal(t, 4, got.SuccessCount)
	assert.Equal(t, 5, got.RecipientCount, "untouched field keeps its value")
	require.NotNil(t, got.SentAt)

	assert.ErrorIs(t, s.Update(ctx, "nope", UpdateFields{Status: &sent}), ErrNotFound)
}

func TestMemoryStorage_ListOrderAndPagination(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage()
	ctx := context.Background()
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Create(ctx, Notification{
			ID:        id,
			Status:    StatusPending,
			Channel:   ChannelEmail,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	page, err := s.List(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)

	empty, err := s.List(ctx, Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryInbox_MarkReadIgnoresUnknownIDs(t *testing.T) {
	t.Parallel()

	inbox := NewMemoryInbox()
	ctx := context.Background()

	require.NoError(t, inbox.Upsert(ctx, "u1", "n1"))
	require.NoError(t, inbox.MarkRead(ctx, "u1", "n1", "ghost"))

	count, err := inbox.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other users are untouched.
	require.NoError(t, inbox.MarkAllRead(ctx, "u2"))
}
