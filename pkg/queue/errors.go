package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("queue: repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload.
	ErrPayloadNil = errors.New("queue: payload cannot be nil")

	// ErrNoTaskToClaim signals that no claimable task is available. It is
	// a normal worker idle condition, not a failure.
	ErrNoTaskToClaim = errors.New("queue: no task to claim")

	// ErrTaskNotFound is returned for operations on unknown task ids.
	ErrTaskNotFound = errors.New("queue: task not found")

	// ErrHandlerNotFound is returned when no handler is registered for a
	// claimed task.
	ErrHandlerNotFound = errors.New("queue: no handler registered for task type")

	// ErrNoHandlers is returned when a worker starts with no handlers.
	ErrNoHandlers = errors.New("queue: no task handlers registered")

	// ErrBrokerUnavailable is returned by Broker.Submit while the backend
	// is considered unreachable. Callers must not treat this as a per-task
	// failure to retry against the broker; it is the signal to switch to
	// direct delivery.
	ErrBrokerUnavailable = errors.New("queue: broker unavailable")

	// ErrSubmitterNil is returned when a Broker is built without a submitter.
	ErrSubmitterNil = errors.New("queue: submitter cannot be nil")

	// ErrPingerNil is returned when a Broker is built without a liveness probe.
	ErrPingerNil = errors.New("queue: pinger cannot be nil")
)
