package caperror

import (
	"fmt"
)

type (
	// CallFailed represents a specific remote invocation that did not complete.
	// The underlying cause is passed through unmodified and can be retrieved
	// with errors.Unwrap/Is/As.
	CallFailed struct {
		Message  string
		Endpoint string
		cause    error
	}
)

// NewCallFailed returns new CallFailed error wrapping the underlying cause.
func NewCallFailed(endpoint string, cause error) error {
	return &CallFailed{
		Message:  fmt.Sprintf("call on %s failed: %v.", endpoint, cause),
		Endpoint: endpoint,
		cause:    cause,
	}
}

// Error returns string message.
func (e *CallFailed) Error() string {
	return e.Message
}

func (e *CallFailed) Unwrap() error {
	return e.cause
}
