package sms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DevSender implements SMSSender for local development. Messages are
// written to a directory as text files instead of going through a gateway.
type DevSender struct {
	dir string
}

// NewDevSender creates a development SMS sender that saves messages to
// disk. The directory is created on first send if needed.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrFailedToSendSMS, err)
	}

	name := fmt.Sprintf("%s_%s.txt", time.Now().Format("2006_01_02_150405.000"), params.SendTo)
	content := fmt.Sprintf("to: %s\n\n%s\n", params.SendTo, params.Text)

	if err := os.WriteFile(filepath.Join(d.dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: write message: %v", ErrFailedToSendSMS, err)
	}

	return nil
}
