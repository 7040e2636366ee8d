package ipc

import (
	"fmt"
)

type (
	// EndpointOptions configures how a registered endpoint is reached.
	EndpointOptions struct {
		// Privileged allows the endpoint to be bootstrapped with elevated
		// rights, when the transport supports that notion.
		Privileged bool `yaml:"privileged"`
		// TerminateOnFailure makes an interruption of this endpoint fatal for
		// the client process.
		TerminateOnFailure bool `yaml:"terminateOnFailure"`
	}

	// Endpoint describes how to locate a remote service. It is immutable for
	// the lifetime of the handle that owns it and is never re-interpreted.
	//
	// An endpoint is either logical (a bare service name the transport maps
	// to an address itself) or registered (a system-registered name plus
	// connection options).
	Endpoint struct {
		name       string
		registered bool
		options    EndpointOptions
	}
)

// NewLogicalEndpoint creates the logical-name variant.
func NewLogicalEndpoint(name string) Endpoint {
	return Endpoint{
		name: name,
	}
}

// NewRegisteredEndpoint creates the registered-name variant.
func NewRegisteredEndpoint(name string, options EndpointOptions) Endpoint {
	return Endpoint{
		name:       name,
		registered: true,
		options:    options,
	}
}

// Name returns the service name the endpoint was created with.
func (e Endpoint) Name() string {
	return e.name
}

// Registered reports whether this is the registered-name variant.
func (e Endpoint) Registered() bool {
	return e.registered
}

// Options returns the connection options; zero for logical endpoints.
func (e Endpoint) Options() EndpointOptions {
	return e.options
}

func (e Endpoint) String() string {
	if e.registered {
		return fmt.Sprintf("registered(%s)", e.name)
	}
	return fmt.Sprintf("logical(%s)", e.name)
}
