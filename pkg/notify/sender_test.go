package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	mu        sync.Mutex
	available bool
	failFor   map[string]error
	submitted []DeliveryJob
}

func (b *fakeBroker) Available() bool { return b.available }

func (b *fakeBroker) Submit(_ context.Context, payload any) error {
	job, ok := payload.(DeliveryJob)
	if !ok {
		return errors.New("unexpected payload type")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[job.RecipientID]; err != nil {
		return err
	}
	b.submitted = append(b.submitted, job)
	return nil
}

func (b *fakeBroker) submittedJobs() []DeliveryJob {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DeliveryJob(nil), b.submitted...)
}

type dispatchFixture struct {
	storage *MemoryStorage
	inbox   *MemoryInbox
	email   *fakeEmailSender
	sms     *fakeSMSSender
	sender  *Sender
}

func newDispatchFixture(t *testing.T, dir *MemoryDirectory, broker Broker, policy PolicyConfig) *dispatchFixture {
	t.Helper()

	f := &dispatchFixture{
		storage: NewMemoryStorage(),
		inbox:   NewMemoryInbox(),
		email:   &fakeEmailSender{},
		sms:     &fakeSMSSender{},
	}

	resolver, err := NewResolver(dir)
	require.NoError(t, err)
	processor, err := NewProcessor(f.email, f.sms, f.inbox)
	require.NoError(t, err)
	f.sender, err = NewSender(f.storage, resolver, NewPolicy(policy), broker, processor)
	require.NoError(t, err)
	return f
}

func allEnabled() PolicyConfig {
	return PolicyConfig{EmailEnabled: true, SMSEnabled: true, InAppEnabled: true}
}

func (f *dispatchFixture) createPending(t *testing.T, n Notification) string {
	t.Helper()
	if n.ID == "" {
		n.ID = "n-" + n.Title
	}
	n.Status = StatusPending
	n.CreatedAt = time.Now()
	require.NoError(t, f.storage.Create(context.Background(), n))
	return n.ID
}

func TestNewSender_Validation(t *testing.T) {
	t.Parallel()

	dir := seededDirectory()
	resolver, err := NewResolver(dir)
	require.NoError(t, err)
	processor, err := NewProcessor(nil, nil, NewMemoryInbox())
	require.NoError(t, err)

	_, err = NewSender(nil, resolver, NewPolicy(allEnabled()), nil, processor)
	assert.ErrorIs(t, err, ErrDependencyNil)

	_, err = NewSender(NewMemoryStorage(), nil, NewPolicy(allEnabled()), nil, processor)
	assert.ErrorIs(t, err, ErrDependencyNil)

	_, err = NewSender(NewMemoryStorage(), resolver, nil, nil, processor)
	assert.ErrorIs(t, err, ErrDependencyNil)

	_, err = NewSender(NewMemoryStorage(), resolver, NewPolicy(allEnabled()), nil, nil)
	assert.ErrorIs(t, err, ErrDependencyNil)

	// A nil broker is allowed: dispatch just always takes the direct path.
	_, err = NewSender(NewMemoryStorage(), resolver, NewPolicy(allEnabled()), nil, processor)
	assert.NoError(t, err)
}

func TestSender_UnknownNotification(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(t, seededDirectory(), nil, allEnabled())
	_, err := f.sender.Send(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSender_RejectsNonPending(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(t, seededDirectory(), nil, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers})

	_, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	_, err = f.sender.Send(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestSender_ResolutionFailureLeavesPending(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(t, seededDirectory(), nil, allEnabled())
	// A REGION record without a target id, as left behind by an older
	// client that skipped validation.
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetRegion})

	_, err := f.sender.Send(context.Background(), id)
	assert.ErrorIs(t, err, ErrTargetIDRequired)

	n, err := f.storage.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, n.Status)
	assert.Empty(t, f.email.sent)
}

func TestSender_QueuedPathSubmitsPerRecipient(t *testing.T) {
	t.Parallel()

	broker := &fakeBroker{available: true}
	f := newDispatchFixture(t, seededDirectory(), broker, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 3, n.RecipientCount)
	assert.Equal(t, 3, n.SuccessCount)
	assert.Equal(t, 0, n.FailedCount)
	require.NotNil(t, n.SentAt)
	assert.Len(t, broker.submittedJobs(), 3)
	// Queued path delivers nothing inline.
	assert.Empty(t, f.email.sent)
}

func TestSender_QueuedPathTalliesSubmitFailures(t *testing.T) {
	t.Parallel()

	broker := &fakeBroker{
		available: true,
		failFor:   map[string]error{"m2": errors.New("payload rejected")},
	}
	f := newDispatchFixture(t, seededDirectory(), broker, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	// One rejected submission never aborts the siblings.
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 2, n.SuccessCount)
	assert.Equal(t, 1, n.FailedCount)
	assert.Equal(t, n.RecipientCount, n.SuccessCount+n.FailedCount)
	assert.Len(t, broker.submittedJobs(), 2)
}

func TestSender_BrokerUnavailableFallsBackToDirect(t *testing.T) {
	t.Parallel()

	broker := &fakeBroker{available: false}
	f := newDispatchFixture(t, seededDirectory(), broker, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 3, n.SuccessCount)
	assert.Empty(t, broker.submittedJobs(), "no jobs may reach an unavailable broker")
	assert.Len(t, f.email.sent, 3, "direct path delivers inline")
}

func TestSender_DirectPathCountsMissingAddressAsFailure(t *testing.T) {
	t.Parallel()

	dir := seededDirectory()
	dir.AddUsers(User{ID: "u9", Phone: "+15550000099", Active: true})

	f := newDispatchFixture(t, dir, nil, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetUser, TargetID: "u9"})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	// The recipient had no email address; the dispatch still completes.
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 1, n.RecipientCount)
	assert.Equal(t, 0, n.SuccessCount)
	assert.Equal(t, 1, n.FailedCount)
}

func TestSender_AllMembersInAppCompletesEmpty(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(t, seededDirectory(), nil, allEnabled())
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelInApp, Target: TargetAllMembers})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 0, n.RecipientCount)
	assert.Equal(t, 0, n.SuccessCount)
	assert.Equal(t, 0, n.FailedCount)
}

func TestSender_DisabledChannelSkipsRecipients(t *testing.T) {
	t.Parallel()

	policy := allEnabled()
	policy.SMSEnabled = false

	f := newDispatchFixture(t, seededDirectory(), nil, policy)
	id := f.createPending(t, Notification{Title: "t", Message: "m", Channel: ChannelSMS, Target: TargetAllMembers})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)

	// Skipped recipients are neither successes nor failures.
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, 0, n.RecipientCount)
	assert.Equal(t, 0, n.SuccessCount)
	assert.Equal(t, 0, n.FailedCount)
	assert.Empty(t, f.sms.sent)
}

func TestSender_InAppDispatchWritesInbox(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(t, seededDirectory(), nil, allEnabled())
	id := f.createPending(t, Notification{
		Title:    "t",
		Message:  "m",
		Channel:  ChannelInApp,
		Target:   TargetUser,
		Metadata: map[string]any{MetadataUserIDsKey: []string{"u1", "u2"}},
	})

	n, err := f.sender.Send(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, n.SuccessCount)

	count, err := f.inbox.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type updateFailingStorage struct {
	*MemoryStorage
	mu       sync.Mutex
	failNext bool
}

func (s *updateFailingStorage) Update(ctx context.Context, id string, fields UpdateFields) error {
	s.mu.Lock()
	fail := s.failNext
	s.failNext = false
	s.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return s.MemoryStorage.Update(ctx, id, fields)
}

func TestSender_PersistFailureMarksFailed(t *testing.T) {
	t.Parallel()

	storage := &updateFailingStorage{MemoryStorage: NewMemoryStorage()}
	resolver, err := NewResolver(seededDirectory())
	require.NoError(t, err)
	processor, err := NewProcessor(&fakeEmailSender{}, &fakeSMSSender{}, NewMemoryInbox())
	require.NoError(t, err)
	sender, err := NewSender(storage, resolver, NewPolicy(allEnabled()), nil, processor)
	require.NoError(t, err)

	n := Notification{ID: "n1", Title: "t", Message: "m", Channel: ChannelEmail, Target: TargetAllMembers, Status: StatusPending, CreatedAt: time.Now()}
	require.NoError(t, storage.Create(context.Background(), n))

	storage.mu.Lock()
	storage.failNext = true
	storage.mu.Unlock()

	_, err = sender.Send(context.Background(), "n1")
	require.Error(t, err)

	// The outcome write failed; the best-effort second write marks FAILED.
	got, err := storage.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
}
