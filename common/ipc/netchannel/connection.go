package netchannel

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
)

type (
	callResult struct {
		reply replyFrame
		err   error
	}

	// connection is a single activated link over a unix socket. One reader
	// goroutine correlates replies with pending calls by ID; losing the
	// stream fires the interrupt handler at most once, unless the loss was a
	// deliberate Close.
	connection struct {
		factory  *Factory
		endpoint ipc.Endpoint
		logger   log.Logger

		expected    capability.Descriptor
		onInterrupt func()
		onFailure   func(error)

		mu        sync.Mutex
		activated bool
		closed    bool
		conn      net.Conn

		writeMu sync.Mutex
		enc     *json.Encoder

		pendingMu sync.Mutex
		pending   map[string]chan callResult
	}
)

var _ ipc.Connection = (*connection)(nil)
var _ ipc.Caller = (*connection)(nil)

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
	conn, err := net.DialTimeout("unix", c.factory.socketPath(c.endpoint), c.factory.config.DialTimeout)
	if err != nil {
		return err
	}
	c.conn = conn
	c.enc = json.NewEncoder(conn)
	c.activated = true
	go c.readLoop()
	return nil
}

func (c *connection) Proxy() (any, error) {
	if c.factory.constructor == nil {
		return nil, fmt.Errorf("netchannel: no proxy constructor configured for endpoint %s", c.endpoint)
	}
	return c.factory.constructor(c), nil
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

	c.failPending(net.ErrClosed)
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Call implements ipc.Caller. A remote rejection or a missing reply is handed
// to the failure handler with the underlying error; a lost stream surfaces
// through the interrupt handler instead.
func (c *connection) Call(method string, args any, reply any) error {
	c.mu.Lock()
	if !c.activated || c.closed {
		c.mu.Unlock()
		return net.ErrClosed
	}
	c.mu.Unlock()

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return err
		}
		raw = b
	}

	id := uuid.NewString()
	result := make(chan callResult, 1)
	c.pendingMu.Lock()
	c.pending[id] = result
	c.pendingMu.Unlock()

	frame := callFrame{
		ID:        id,
		Interface: c.expected.Name,
		Method:    method,
		Args:      raw,
	}
	c.writeMu.Lock()
	err := c.enc.Encode(&frame)
	c.writeMu.Unlock()
	if err != nil {
		c.removePending(id)
		c.fail(err)
		return err
	}
	c.logger.Debug("call sent", tag.Method(method), tag.CallID(id))

	timer := time.NewTimer(c.factory.config.CallTimeout)
	defer timer.Stop()
	select {
	case res := <-result:
		if res.err != nil {
			return res.err
		}
		if res.reply.Error != "" {
			remoteErr := &RemoteError{Message: res.reply.Error}
			c.fail(remoteErr)
			return remoteErr
		}
		if reply != nil && len(res.reply.Result) > 0 {
			return json.Unmarshal(res.reply.Result, reply)
		}
		return nil
	case <-timer.C:
		c.removePending(id)
		noReply := &NoReplyError{Method: method, Timeout: c.factory.config.CallTimeout}
		c.fail(noReply)
		return noReply
	}
}

func (c *connection) readLoop() {
	dec := json.NewDecoder(c.conn)
	for {
		var reply replyFrame
		if err := dec.Decode(&reply); err != nil {
			c.handleDisconnect(err)
			return
		}
		c.dispatch(reply)
	}
}

func (c *connection) dispatch(reply replyFrame) {
	c.pendingMu.Lock()
	result, ok := c.pending[reply.ID]
	if ok {
		delete(c.pending, reply.ID)
	}
	c.pendingMu.Unlock()
	if !ok {
		c.logger.Debug("dropping reply with no pending call", tag.CallID(reply.ID))
		return
	}
	result <- callResult{reply: reply}
}

func (c *connection) handleDisconnect(cause error) {
	c.mu.Lock()
	deliberate := c.closed
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.failPending(net.ErrClosed)
	if deliberate {
		return
	}
	_ = conn.Close()
	c.logger.Warn("connection to endpoint lost", tag.Error(cause))
	if c.endpoint.Options().TerminateOnFailure {
		c.logger.Fatal("endpoint is configured to terminate the client on failure", tag.Error(cause))
	}
	if c.onInterrupt != nil {
		c.onInterrupt()
	}
}

func (c *connection) removePending(id string) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *connection) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[string]chan callResult)
	c.pendingMu.Unlock()

	for _, result := range pending {
		result <- callResult{err: err}
	}
}

func (c *connection) fail(err error) {
	if c.onFailure != nil {
		c.onFailure(err)
	}
}
