package caperror

import (
	"fmt"
)

type (
	// ProxyTypeMismatch represents a proxy returned by the transport that does
	// not satisfy the requested capability type.
	ProxyTypeMismatch struct {
		Message  string
		Expected string
		Actual   string
	}
)

// NewProxyTypeMismatch returns new ProxyTypeMismatch error.
func NewProxyTypeMismatch(expected string, actual string) error {
	return &ProxyTypeMismatch{
		Message:  fmt.Sprintf("remote proxy of type %s does not satisfy capability %s.", actual, expected),
		Expected: expected,
		Actual:   actual,
	}
}

// Error returns string message.
func (e *ProxyTypeMismatch) Error() string {
	return e.Message
}
