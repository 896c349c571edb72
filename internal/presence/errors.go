package presence

import "errors"

// Error taxonomy surfaced by the service. Callers branch with errors.Is;
// handlers map these to HTTP status codes.
var (
	// ErrNotFound means a scan code or learner id matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the caller supplied a malformed filter or input.
	ErrValidation = errors.New("invalid input")
	// ErrPersistence means the store rejected or failed an operation.
	ErrPersistence = errors.New("persistence failure")
	// ErrTimeout means the store did not answer within the operation deadline.
	ErrTimeout = errors.New("operation timed out")
)
