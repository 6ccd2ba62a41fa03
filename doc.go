// Package memberkit is a toolkit for membership-organization platforms.
//
// Its centerpiece is the notification dispatch engine in pkg/notify: create
// a notification aimed at the whole register, a region, a scope or a single
// user, then dispatch it across email, SMS and in-app channels. Delivery
// fans out per recipient through the Redis-backed queue in pkg/queue when
// the broker is reachable, and degrades to synchronous inline delivery when
// it is not.
//
// Supporting packages follow the same pattern throughout: small focused
// APIs, environment-driven configuration via pkg/config, structured logging
// via pkg/logger, and interfaces at every external boundary so providers
// can be swapped without touching the domain code.
//
//	pkg/notify  notification dispatch engine and in-app inbox
//	pkg/queue   background task queue with broker health tracking
//	pkg/email   transactional email via Postmark
//	pkg/sms     SMS delivery via an HTTP gateway
//	pkg/async   futures and settle-all aggregation
//	pkg/config  cached env-based configuration loading
//	pkg/logger  slog factory with common attribute helpers
package memberkit
