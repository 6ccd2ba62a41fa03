package notify

import "errors"

var (
	// ErrNotFound is returned when a notification does not exist.
	ErrNotFound = errors.New("notify: notification not found")

	// ErrNotPending is returned when sending a notification that already
	// left the PENDING state.
	ErrNotPending = errors.New("notify: notification is not pending")

	// ErrTitleRequired and ErrMessageRequired guard creation.
	ErrTitleRequired   = errors.New("notify: title is required")
	ErrMessageRequired = errors.New("notify: message is required")

	// ErrInvalidChannel is returned for unknown channel values at creation.
	ErrInvalidChannel = errors.New("notify: invalid channel")

	// ErrInvalidTarget is returned for unknown target types at creation.
	ErrInvalidTarget = errors.New("notify: invalid target type")

	// ErrTargetIDRequired is returned when REGION, SCOPE or USER targets
	// carry no target id.
	ErrTargetIDRequired = errors.New("notify: target id is required")

	// ErrTargetIDForbidden is returned when ALL_MEMBERS carries a target id.
	ErrTargetIDForbidden = errors.New("notify: target id is not allowed for this target type")

	// ErrUnsupportedTarget is returned by the resolver for target types
	// outside the closed set.
	ErrUnsupportedTarget = errors.New("notify: unsupported target type")

	// ErrUnsupportedChannel is returned by the processor for channels
	// outside the closed set.
	ErrUnsupportedChannel = errors.New("notify: unsupported channel")

	// ErrUserNotFound is returned when a USER target references an
	// unknown user.
	ErrUserNotFound = errors.New("notify: user not found")

	// ErrNoRecipients is returned when an explicit user-id list resolves
	// to nobody.
	ErrNoRecipients = errors.New("notify: no recipients resolved")

	// ErrMissingEmail is a per-job delivery failure: an EMAIL job without
	// a recipient address.
	ErrMissingEmail = errors.New("notify: recipient email is missing")

	// ErrMissingPhone is a per-job delivery failure: an SMS job without a
	// recipient phone.
	ErrMissingPhone = errors.New("notify: recipient phone is missing")

	// ErrMissingRecipient is a per-job delivery failure: an IN_APP job
	// without a recipient id.
	ErrMissingRecipient = errors.New("notify: recipient id is missing")

	// ErrInvalidJob is returned for structurally broken delivery jobs.
	ErrInvalidJob = errors.New("notify: invalid delivery job")

	// ErrSenderNotConfigured is returned when a job reaches a channel
	// whose adapter was not wired.
	ErrSenderNotConfigured = errors.New("notify: channel sender not configured")

	// ErrDependencyNil is returned by constructors missing a required
	// collaborator.
	ErrDependencyNil = errors.New("notify: required dependency is nil")
)
