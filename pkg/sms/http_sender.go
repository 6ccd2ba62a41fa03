package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSender implements SMSSender against a JSON gateway endpoint. The
// request carries sender id, recipient and text; any non-2xx response is a
// provider error.
type HTTPSender struct {
	config Config
	client *http.Client
}

// NewHTTPSender creates a gateway-backed SMS sender.
func NewHTTPSender(cfg Config) (*HTTPSender, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: GatewayURL is required", ErrInvalidConfig)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	return &HTTPSender{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

// MustNewHTTPSender creates a gateway sender that panics on invalid
// configuration.
func MustNewHTTPSender(cfg Config) *HTTPSender {
	sender, err := NewHTTPSender(cfg)
	if err != nil {
		panic(err)
	}
	return sender
}

type gatewayRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

func (s *HTTPSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(gatewayRequest{
		From: s.config.SenderID,
		To:   params.SendTo,
		Text: params.Text,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrFailedToSendSMS, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrFailedToSendSMS, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.GatewayToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.GatewayToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendSMS, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short response excerpt for diagnostics.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: gateway returned %d: %s", ErrFailedToSendSMS, resp.StatusCode, excerpt)
	}

	return nil
}
