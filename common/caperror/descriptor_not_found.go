package caperror

import (
	"fmt"
)

type (
	// DescriptorNotFound represents failure to map a capability type to a
	// registered interface descriptor.
	DescriptorNotFound struct {
		Message        string
		CapabilityType string
	}
)

// NewDescriptorNotFound returns new DescriptorNotFound error.
func NewDescriptorNotFound(capabilityType string) error {
	return &DescriptorNotFound{
		Message:        fmt.Sprintf("no interface descriptor registered for capability type %q.", capabilityType),
		CapabilityType: capabilityType,
	}
}

// Error returns string message.
func (e *DescriptorNotFound) Error() string {
	return e.Message
}
