package sms

import "errors"

var (
	// ErrFailedToSendSMS wraps provider errors from the underlying gateway.
	ErrFailedToSendSMS = errors.New("sms: failed to send")

	// ErrInvalidConfig is returned for missing or malformed configuration.
	ErrInvalidConfig = errors.New("sms: invalid config")

	// ErrInvalidParams is returned when send parameters fail validation.
	ErrInvalidParams = errors.New("sms: invalid send params")
)
