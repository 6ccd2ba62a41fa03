// Package sms defines the outbound SMS capability used by the notification
// dispatch engine.
//
// SMSSender is the contract the engine depends on; the concrete provider
// protocol stays behind it. HTTPSender posts messages to a JSON gateway
// endpoint, which is how most aggregator providers are integrated.
// DevSender writes messages to a local directory for development.
package sms
