package tag

import "time"

// All logging tags are defined in this file.

// LoggingCallAtKey is the tag key for the caller of a log line.
const LoggingCallAtKey = "logging-call-at"

// Error returns tag for Error
func Error(err error) Tag {
	return NewErrorTag("error", err)
}

// Endpoint returns tag for the endpoint descriptor name
func Endpoint(name string) Tag {
	return NewStringTag("endpoint", name)
}

// Capability returns tag for the capability interface name
func Capability(name string) Tag {
	return NewStringTag("capability", name)
}

// ConnectionGeneration returns tag for the generation of a cached connection
func ConnectionGeneration(gen int64) Tag {
	return NewInt64("connection-generation", gen)
}

// FailureKind returns tag for the kind of a reported failure
func FailureKind(kind string) Tag {
	return NewStringTag("failure-kind", kind)
}

// Method returns tag for the remote method name
func Method(method string) Tag {
	return NewStringTag("method", method)
}

// CallID returns tag for a call ID
func CallID(id string) Tag {
	return NewStringTag("call-id", id)
}

// Address returns tag for a transport address
func Address(address string) Tag {
	return NewStringTag("address", address)
}

// Target returns tag for a dial target
func Target(target string) Tag {
	return NewStringTag("target", target)
}

// Timeout returns tag for a timeout value
func Timeout(timeout time.Duration) Tag {
	return NewDurationTag("timeout", timeout)
}

// ConnectivityState returns tag for a transport connectivity state
func ConnectivityState(state string) Tag {
	return NewStringTag("connectivity-state", state)
}
