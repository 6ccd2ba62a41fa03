// Package queue implements the asynchronous delivery backbone of the
// dispatch engine: a broker-backed task queue with retries, a dead letter
// queue, and explicit broker health tracking.
//
// # Components
//
//   - Enqueuer turns typed payloads into persisted tasks.
//   - Worker claims tasks on a poll loop and runs registered handlers with
//     bounded concurrency, retry bookkeeping, and DLQ handoff.
//   - Broker fronts the Enqueuer with liveness state. It starts
//     unavailable, probes the backend, and refuses submissions outright
//     while the backend is unreachable so callers can fall back to
//     synchronous delivery instead of buffering jobs client-side.
//
// # Storage
//
// Tasks live behind the EnqueuerRepository and WorkerRepository
// interfaces. RedisStorage is the production implementation;
// MemoryStorage serves tests and local development. Both apply the same
// retention policy: completed tasks are pruned after 24 hours or beyond
// the last 1000 entries, dead tasks after 7 days.
//
// # Retry policy
//
// A task is attempted up to its MaxRetries (3 by default) with
// exponential backoff starting at 2 seconds. Exhausted tasks move to the
// dead letter queue for manual inspection.
package queue
