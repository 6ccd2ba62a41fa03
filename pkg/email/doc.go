// Package email defines the outbound email capability used by the
// notification dispatch engine.
//
// EmailSender is the contract the engine depends on; any provider error it
// returns is treated as a per-recipient delivery failure by the caller.
// Two implementations ship with the package:
//
//   - Postmark client for production, created with NewPostmarkClient.
//   - DevSender, which writes emails to a local directory for inspection
//     during development instead of sending anything.
package email
