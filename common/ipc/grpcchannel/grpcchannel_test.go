package grpcchannel

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
)

func passthroughResolver(endpoint ipc.Endpoint) (string, error) {
	return "passthrough:///" + endpoint.Name(), nil
}

func testFactory(constructor ProxyConstructor) *Factory {
	return NewFactory(passthroughResolver, constructor, nil, log.NewTestLogger())
}

func TestResolverFailurePreventsConnection(t *testing.T) {
	boom := errors.New("unknown endpoint")
	factory := NewFactory(
		func(ipc.Endpoint) (string, error) { return "", boom },
		nil,
		nil,
		log.NewTestLogger(),
	)

	_, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.echo"))
	assert.ErrorIs(t, err, boom)
}

func TestActivateIsOneShot(t *testing.T) {
	factory := testFactory(func(conn grpc.ClientConnInterface) any { return conn })
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("127.0.0.1:12345"))
	require.NoError(t, err)
	conn.SetExpectedInterface(capability.NewDescriptor("svc.echo"))
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	assert.ErrorIs(t, conn.Activate(), ErrAlreadyActivated)
}

func TestProxyUsesConstructor(t *testing.T) {
	type wrapped struct{ conn grpc.ClientConnInterface }
	factory := testFactory(func(conn grpc.ClientConnInterface) any { return &wrapped{conn: conn} })
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("127.0.0.1:12345"))
	require.NoError(t, err)
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	proxy, err := conn.Proxy()
	require.NoError(t, err)
	built, ok := proxy.(*wrapped)
	require.True(t, ok)
	assert.NotNil(t, built.conn)
}

func TestProxyWithoutConstructorFails(t *testing.T) {
	factory := testFactory(nil)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("127.0.0.1:12345"))
	require.NoError(t, err)
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	_, err = conn.Proxy()
	assert.Error(t, err)
}

func TestCloseBeforeActivate(t *testing.T) {
	factory := testFactory(nil)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("127.0.0.1:12345"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.Error(t, conn.Activate(), "a closed connection cannot be activated")
}

func TestInterruptOnUnreachableTarget(t *testing.T) {
	factory := testFactory(func(conn grpc.ClientConnInterface) any { return conn })
	// nothing listens here; the transport sits in TRANSIENT_FAILURE past the
	// grace interval
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint(unreachableTarget(t)))
	require.NoError(t, err)

	interrupted := make(chan struct{}, 1)
	conn.SetInterruptHandler(func() { interrupted <- struct{}{} })
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	select {
	case <-interrupted:
	case <-time.After(30 * time.Second):
		t.Fatal("interrupt handler was not fired")
	}
}

func unreachableTarget(t *testing.T) string {
	t.Helper()
	// a port from the dynamic range with nothing bound to it
	return fmt.Sprintf("127.0.0.1:%d", 49151)
}
