package grpcchannel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
)

const (
	// maxBackoffDelay is a maximum interval between transport reconnect
	// attempts. The gRPC default of 120 seconds is too high.
	maxBackoffDelay = 10 * time.Second

	// minConnectTimeout is the minimum amount of time we are willing to give
	// a connection to complete.
	minConnectTimeout = 20 * time.Second

	// transientFailureGrace is how long a channel may sit in TRANSIENT_FAILURE
	// before the loss is treated as an interruption. The transport's own
	// backoff can recover a short blip without the handle ever noticing.
	transientFailureGrace = 10 * time.Second
)

// ErrAlreadyActivated is returned by Activate on second use.
var ErrAlreadyActivated = errors.New("grpcchannel: connection already activated")

type (
	// connection wraps a grpc.ClientConn. Interruption is derived from the
	// connectivity state: a watcher goroutine fires the interrupt handler
	// once when the channel shuts down or stays in transient failure past
	// the grace interval, and per-call failures reach the failure handler
	// through a unary interceptor.
	connection struct {
		factory  *Factory
		endpoint ipc.Endpoint
		target   string
		logger   log.Logger

		expected    capability.Descriptor
		onInterrupt func()
		onFailure   func(error)

		mu        sync.Mutex
		activated bool
		closed    bool
		conn      *grpc.ClientConn

		watchCtx    context.Context
		watchCancel context.CancelFunc
	}
)

var _ ipc.Connection = (*connection)(nil)

func newConnection(f *Factory, endpoint ipc.Endpoint, target string, logger log.Logger) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		factory:     f,
		endpoint:    endpoint,
		target:      target,
		logger:      logger,
		watchCtx:    ctx,
		watchCancel: cancel,
	}
}

func (c *connection) SetExpectedInterface(descriptor capability.Descriptor) {
	c.expected = descriptor
}

func (c *connection) SetInterruptHandler(handler func()) {
	c.onInterrupt = handler
}

func (c *connection) SetFailureHandler(handler func(error)) {
	c.onFailure = handler
}

func (c *connection) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activated {
		return ErrAlreadyActivated
	}
	if c.closed {
		return net.ErrClosed
	}

	var grpcSecureOpt grpc.DialOption
	if c.factory.tlsConfig == nil {
		grpcSecureOpt = grpc.WithTransportCredentials(insecure.NewCredentials())
	} else {
		grpcSecureOpt = grpc.WithTransportCredentials(credentials.NewTLS(c.factory.tlsConfig))
	}

	cp := grpc.ConnectParams{
		Backoff:           backoff.DefaultConfig,
		MinConnectTimeout: minConnectTimeout,
	}
	cp.Backoff.MaxDelay = maxBackoffDelay

	conn, err := grpc.NewClient(
		c.target,
		grpcSecureOpt,
		grpc.WithConnectParams(cp),
		grpc.WithChainUnaryInterceptor(c.failureInterceptor),
	)
	if err != nil {
		return err
	}
	c.conn = conn
	c.activated = true
	go c.watchState()
	return nil
}

func (c *connection) Proxy() (any, error) {
	if c.factory.constructor == nil {
		return nil, fmt.Errorf("grpcchannel: no proxy constructor configured for endpoint %s", c.endpoint)
	}
	return c.factory.constructor(c.conn), nil
}

func (c *connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.watchCancel()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// watchState drives the connection out of idle and watches connectivity until
// the transport is lost or the connection is deliberately closed. Shutdown
// interrupts immediately; TRANSIENT_FAILURE only after it persists past the
// grace interval.
func (c *connection) watchState() {
	c.conn.Connect()
	state := c.conn.GetState()
	for {
		switch state {
		case connectivity.Shutdown:
			c.interrupt(state)
			return
		case connectivity.TransientFailure:
			if !c.recoversWithinGrace() {
				c.interrupt(state)
				return
			}
			state = c.conn.GetState()
			continue
		}
		if !c.conn.WaitForStateChange(c.watchCtx, state) {
			return
		}
		state = c.conn.GetState()
	}
}

// recoversWithinGrace reports whether the channel leaves TRANSIENT_FAILURE
// and reaches READY before the grace interval expires. Cycling through
// CONNECTING is not recovery; only a re-established transport is.
func (c *connection) recoversWithinGrace() bool {
	ctx, cancel := context.WithTimeout(c.watchCtx, transientFailureGrace)
	defer cancel()

	state := connectivity.TransientFailure
	for state != connectivity.Ready {
		if !c.conn.WaitForStateChange(ctx, state) {
			return false
		}
		state = c.conn.GetState()
		if state == connectivity.Shutdown {
			return false
		}
	}
	return true
}

func (c *connection) interrupt(state connectivity.State) {
	c.mu.Lock()
	deliberate := c.closed
	c.mu.Unlock()
	if deliberate {
		return
	}

	c.logger.Warn("grpc channel lost connectivity", tag.ConnectivityState(state.String()))
	if c.endpoint.Options().TerminateOnFailure {
		c.logger.Fatal("endpoint is configured to terminate the client on failure")
	}
	if c.onInterrupt != nil {
		c.onInterrupt()
	}
}

func (c *connection) failureInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	err := invoker(ctx, method, req, reply, cc, opts...)
	if err != nil {
		c.logger.Debug("call failed", tag.Method(method), tag.Error(err))
		c.fail(err)
	}
	return err
}

func (c *connection) fail(err error) {
	if c.onFailure != nil {
		c.onFailure(err)
	}
}
