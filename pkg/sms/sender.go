package sms

import (
	"context"
	"fmt"
	"regexp"
)

// SMSSender sends a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, params SendSMSParams) error
}

// SendSMSParams represents the parameters for sending one message.
type SendSMSParams struct {
	SendTo string `json:"send_to"`
	Text   string `json:"text"`
}

// phoneRegex accepts E.164-style numbers with an optional leading plus.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Validate checks the parameters before they reach a provider.
func (p SendSMSParams) Validate() error {
	if p.SendTo == "" {
		return fmt.Errorf("%w: recipient phone is required", ErrInvalidParams)
	}
	if !phoneRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: %q is not a valid phone number", ErrInvalidParams, p.SendTo)
	}
	if p.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidParams)
	}
	return nil
}
