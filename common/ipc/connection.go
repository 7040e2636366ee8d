package ipc

import (
	"github.com/capbridge/capbridge/common/capability"
)

type (
	// Connection is a live channel to a remote endpoint. Connections are
	// produced un-activated: the expected interface and the asynchronous
	// handlers must be configured before Activate, which is a one-shot,
	// irreversible operation per connection.
	Connection interface {
		// SetExpectedInterface configures the descriptor the transport uses
		// to validate and authorize the remote proxy.
		SetExpectedInterface(descriptor capability.Descriptor)
		// SetInterruptHandler registers the callback fired once when the
		// remote endpoint terminates independent of any specific call. The
		// callback runs on a transport-owned goroutine.
		SetInterruptHandler(handler func())
		// SetFailureHandler registers the callback fired when a specific
		// invocation fails to complete, with the underlying error. The
		// callback runs on a transport-owned goroutine.
		SetFailureHandler(handler func(error))
		// Activate establishes the link. Calling it twice is an error.
		Activate() error
		// Proxy returns the typed stand-in for the remote capability. Valid
		// only while the connection stays open.
		Proxy() (any, error)
		// Close tears the link down. Closing never fires the interrupt
		// handler.
		Close() error
	}

	// ChannelFactory constructs connections from endpoint descriptors. No I/O
	// happens until the returned connection is activated.
	ChannelFactory interface {
		NewConnection(endpoint Endpoint) (Connection, error)
	}

	// Caller is the generic invocation surface proxy constructors build their
	// typed clients on top of.
	Caller interface {
		// Call invokes a remote method, marshalling args and unmarshalling
		// the response into reply. A nil reply discards the response.
		Call(method string, args any, reply any) error
	}
)
