// Package notify implements the notification dispatch engine: it turns a
// logical notification ("tell these members X") into per-recipient
// delivery jobs across email, SMS and in-app channels, routes them
// through the queue broker when it is reachable, falls back to
// synchronous delivery when it is not, and aggregates per-recipient
// outcomes into the final notification status.
//
// # Flow
//
// A notification is created PENDING via Service.CreateNotification and
// dispatched exactly once via Service.Send. The Sender resolves the
// target specification into concrete recipients, consults the channel
// policy, then either submits one DeliveryJob per recipient to the
// broker (queued path) or runs the Processor inline per recipient
// (direct path). Per-recipient failures are counted, never raised; the
// terminal status is SENT with SuccessCount/FailedCount tallies, or
// FAILED if the operation itself broke. Callers must inspect the counts
// to detect partial failure: there is no intermediate status.
//
// External collaborators stay behind interfaces: Storage for the
// notification record, InboxStorage for the in-app projection, Directory
// for the member/user lookup, and the email/sms capability interfaces
// for providers. In-memory implementations back the tests; Postgres
// implementations back production.
package notify
