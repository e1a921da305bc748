package queue

import "context"

// Job is a named handler for one message type on the queue.
type Job interface {
	// Name identifies the job in logs and DLQ entries.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one payload.
	Handle(ctx context.Context, payload interface{}) error
}
