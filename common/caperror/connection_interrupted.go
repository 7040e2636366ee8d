package caperror

import (
	"fmt"
)

type (
	// ConnectionInterrupted represents termination of the remote endpoint
	// independent of any specific call.
	ConnectionInterrupted struct {
		Message  string
		Endpoint string
	}
)

// NewConnectionInterrupted returns new ConnectionInterrupted error.
func NewConnectionInterrupted(endpoint string) error {
	return &ConnectionInterrupted{
		Message:  fmt.Sprintf("connection to %s was interrupted.", endpoint),
		Endpoint: endpoint,
	}
}

// Error returns string message.
func (e *ConnectionInterrupted) Error() string {
	return e.Message
}
