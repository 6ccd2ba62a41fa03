package sms

import "time"

// Config holds SMS gateway configuration. GatewayURL is optional so
// development environments can run on the DevSender.
type Config struct {
	GatewayURL     string        `env:"SMS_GATEWAY_URL"`
	GatewayToken   string        `env:"SMS_GATEWAY_TOKEN"`
	SenderID       string        `env:"SMS_SENDER_ID" envDefault:"memberkit"`
	RequestTimeout time.Duration `env:"SMS_REQUEST_TIMEOUT" envDefault:"10s"`
}
