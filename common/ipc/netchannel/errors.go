package netchannel

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyActivated is returned by Activate on second use; activation is a
// one-shot operation per connection.
var ErrAlreadyActivated = errors.New("netchannel: connection already activated")

type (
	// RemoteError is a rejection produced by the serving side of the channel.
	RemoteError struct {
		Message string
	}

	// NoReplyError reports that a call saw no reply within the call timeout.
	NoReplyError struct {
		Method  string
		Timeout time.Duration
	}
)

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *NoReplyError) Error() string {
	return fmt.Sprintf("netchannel: no reply for %s within %v", e.Method, e.Timeout)
}
