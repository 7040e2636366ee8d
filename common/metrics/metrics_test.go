package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally/v4"
)

func TestHandlerEmitsCounters(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	handler := NewHandler(scope)

	handler.ConnectionEstablished("svc.echo")
	handler.ConnectionEstablished("svc.echo")
	handler.ConnectionFailure("svc.echo", "interrupt")
	handler.ConnectionClosed("svc.echo")

	var established, failures, closed int64
	for _, counter := range scope.Snapshot().Counters() {
		switch counter.Name() {
		case ConnectionEstablishedCounter:
			established += counter.Value()
		case ConnectionFailureCounter:
			failures += counter.Value()
			assert.Equal(t, "interrupt", counter.Tags()[failureKindTag])
		case ConnectionClosedCounter:
			closed += counter.Value()
		}
	}
	assert.Equal(t, int64(2), established)
	assert.Equal(t, int64(1), failures)
	assert.Equal(t, int64(1), closed)
}

func TestNoopHandlerIsSafe(t *testing.T) {
	NoopHandler.ConnectionEstablished("svc.echo")
	NoopHandler.ConnectionFailure("svc.echo", "call")
	NoopHandler.ConnectionClosed("svc.echo")
}
