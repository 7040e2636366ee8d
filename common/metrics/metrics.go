package metrics

import (
	"github.com/uber-go/tally/v4"
)

// Metric and tag names emitted by the remote capability client.
const (
	ConnectionEstablishedCounter = "remote_connection_established"
	ConnectionFailureCounter     = "remote_connection_failure"
	ConnectionClosedCounter      = "remote_connection_closed"

	endpointTag    = "endpoint"
	failureKindTag = "failure_kind"
)

type (
	// Handler emits client metrics into a tally scope.
	Handler struct {
		scope tally.Scope
	}
)

// NoopHandler discards everything.
var NoopHandler = NewHandler(tally.NoopScope)

// NewHandler creates a handler emitting into the given scope.
func NewHandler(scope tally.Scope) Handler {
	return Handler{
		scope: scope,
	}
}

// ConnectionEstablished counts a successfully established connection.
func (h Handler) ConnectionEstablished(endpoint string) {
	h.tagged(endpoint).Counter(ConnectionEstablishedCounter).Inc(1)
}

// ConnectionFailure counts a reported failure by kind.
func (h Handler) ConnectionFailure(endpoint string, kind string) {
	h.scope.Tagged(map[string]string{
		endpointTag:    endpoint,
		failureKindTag: kind,
	}).Counter(ConnectionFailureCounter).Inc(1)
}

// ConnectionClosed counts a deliberately closed connection.
func (h Handler) ConnectionClosed(endpoint string) {
	h.tagged(endpoint).Counter(ConnectionClosedCounter).Inc(1)
}

func (h Handler) tagged(endpoint string) tally.Scope {
	return h.scope.Tagged(map[string]string{endpointTag: endpoint})
}
