package netchannel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capbridge/capbridge/client"
	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/caperror"
	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
)

type echoService interface {
	Echo(msg string) (string, error)
}

type echoClient struct {
	caller ipc.Caller
}

func (c *echoClient) Echo(msg string) (string, error) {
	var out string
	err := c.caller.Call("Echo", msg, &out)
	return out, err
}

func echoHandler(delay time.Duration) HandlerFunc {
	return func(args json.RawMessage) (any, error) {
		if delay > 0 {
			time.Sleep(delay)
		}
		var msg string
		if err := json.Unmarshal(args, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	}
}

func startEchoServer(t *testing.T, dir string, descriptor capability.Descriptor, delay time.Duration) *Server {
	t.Helper()
	srv := NewServer(descriptor, log.NewTestLogger())
	srv.Handle("Echo", echoHandler(delay))
	listener, err := Listen(dir, "svc.echo")
	require.NoError(t, err)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func echoFactory(dir string, callTimeout time.Duration) *Factory {
	return NewFactory(
		Config{SocketDir: dir, CallTimeout: callTimeout},
		func(caller ipc.Caller) any { return &echoClient{caller: caller} },
		log.NewTestLogger(),
	)
}

func waitReported(t *testing.T, errs chan error) error {
	t.Helper()
	select {
	case err := <-errs:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("no failure reported")
		return nil
	}
}

func TestEchoRoundTripAndReconnectAfterInterrupt(t *testing.T) {
	dir := t.TempDir()
	registry := capability.NewRegistry()
	descriptor, err := capability.RegisterType[echoService](registry, "Echo")
	require.NoError(t, err)

	srv := startEchoServer(t, dir, descriptor, 0)

	errs := make(chan error, 16)
	h := client.New[echoService](
		ipc.NewLogicalEndpoint("svc.echo"),
		echoFactory(dir, 0),
		func(err error) { errs <- err },
		client.WithRegistry(registry),
		client.WithLogger(log.NewTestLogger()),
	)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.Invoke(func(proxy echoService) {
		out, err := proxy.Echo("hi")
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	}))
	assert.Empty(t, errs)

	// remote process goes away
	require.NoError(t, srv.Close())

	reported := waitReported(t, errs)
	var interrupted *caperror.ConnectionInterrupted
	require.ErrorAs(t, reported, &interrupted)

	// the next call transparently builds a second, distinct connection
	startEchoServer(t, dir, descriptor, 0)
	require.NoError(t, h.Invoke(func(proxy echoService) {
		out, err := proxy.Echo("again")
		require.NoError(t, err)
		assert.Equal(t, "again", out)
	}))
}

func TestNoReplyTimeoutInvalidates(t *testing.T) {
	dir := t.TempDir()
	registry := capability.NewRegistry()
	descriptor, err := capability.RegisterType[echoService](registry, "Echo")
	require.NoError(t, err)

	startEchoServer(t, dir, descriptor, 2*time.Second)

	errs := make(chan error, 16)
	h := client.New[echoService](
		ipc.NewLogicalEndpoint("svc.echo"),
		echoFactory(dir, 100*time.Millisecond),
		func(err error) { errs <- err },
		client.WithRegistry(registry),
	)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.Invoke(func(proxy echoService) {
		_, err := proxy.Echo("hi")
		var noReply *NoReplyError
		require.ErrorAs(t, err, &noReply)
		assert.Equal(t, "Echo", noReply.Method)
	}))

	reported := waitReported(t, errs)
	var failed *caperror.CallFailed
	require.ErrorAs(t, reported, &failed)
	var noReply *NoReplyError
	assert.ErrorAs(t, reported, &noReply, "underlying no-reply error must pass through")
}

func TestServerRejectsForeignInterfaceAndUnknownMethod(t *testing.T) {
	dir := t.TempDir()
	descriptor := capability.NewDescriptor("svc.echo", "Echo")
	startEchoServer(t, dir, descriptor, 0)

	factory := echoFactory(dir, 0)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.echo"))
	require.NoError(t, err)
	conn.SetExpectedInterface(capability.NewDescriptor("svc.other"))
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	caller := conn.(ipc.Caller)
	err = caller.Call("Echo", "hi", nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)

	second, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.echo"))
	require.NoError(t, err)
	second.SetExpectedInterface(descriptor)
	require.NoError(t, second.Activate())
	defer func() { _ = second.Close() }()

	err = second.(ipc.Caller).Call("Shout", "hi", nil)
	require.ErrorAs(t, err, &remote)
}

func TestActivateIsOneShot(t *testing.T) {
	dir := t.TempDir()
	descriptor := capability.NewDescriptor("svc.echo", "Echo")
	startEchoServer(t, dir, descriptor, 0)

	factory := echoFactory(dir, 0)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.echo"))
	require.NoError(t, err)
	conn.SetExpectedInterface(descriptor)
	require.NoError(t, conn.Activate())
	defer func() { _ = conn.Close() }()

	assert.ErrorIs(t, conn.Activate(), ErrAlreadyActivated)
}

func TestCloseDoesNotFireInterrupt(t *testing.T) {
	dir := t.TempDir()
	descriptor := capability.NewDescriptor("svc.echo", "Echo")
	startEchoServer(t, dir, descriptor, 0)

	factory := echoFactory(dir, 0)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.echo"))
	require.NoError(t, err)
	conn.SetExpectedInterface(descriptor)
	interrupted := make(chan struct{}, 1)
	conn.SetInterruptHandler(func() { interrupted <- struct{}{} })
	require.NoError(t, conn.Activate())

	require.NoError(t, conn.Close())
	select {
	case <-interrupted:
		t.Fatal("deliberate close must not look like an interruption")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDialFailureWhenSocketMissing(t *testing.T) {
	factory := echoFactory(t.TempDir(), 0)
	conn, err := factory.NewConnection(ipc.NewLogicalEndpoint("svc.gone"))
	require.NoError(t, err)
	assert.Error(t, conn.Activate())
}
