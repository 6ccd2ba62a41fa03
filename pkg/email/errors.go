package email

import "errors"

var (
	// ErrFailedToSendEmail wraps provider errors from the underlying service.
	ErrFailedToSendEmail = errors.New("email: failed to send")

	// ErrInvalidConfig is returned for missing or malformed configuration.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrInvalidParams is returned when send parameters fail validation.
	ErrInvalidParams = errors.New("email: invalid send params")
)
