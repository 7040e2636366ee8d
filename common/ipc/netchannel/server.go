package netchannel

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
)

type (
	// HandlerFunc executes one method call. args is the raw JSON payload of
	// the call frame; the returned value is marshalled into the reply.
	HandlerFunc func(args json.RawMessage) (any, error)

	// Server is the dispatching counterpart of the channel: it exports one
	// capability on a listener and routes call frames to method handlers.
	Server struct {
		descriptor capability.Descriptor
		logger     log.Logger

		mu       sync.Mutex
		handlers map[string]HandlerFunc
		listener net.Listener
		conns    map[net.Conn]struct{}
		closed   bool

		wg sync.WaitGroup
	}
)

// NewServer creates a server exporting the given capability descriptor.
func NewServer(descriptor capability.Descriptor, logger log.Logger) *Server {
	return &Server{
		descriptor: descriptor,
		logger:     log.With(logger, tag.Capability(descriptor.Name)),
		handlers:   make(map[string]HandlerFunc),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Handle registers the handler for a method name.
func (s *Server) Handle(method string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[method] = handler
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return net.ErrClosed
	}
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// Close stops the listener, tears down every open connection and waits for
// the per-connection goroutines to drain.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listener := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = multierr.Append(err, listener.Close())
	}
	for _, conn := range conns {
		err = multierr.Append(err, conn.Close())
	}
	s.wg.Wait()
	return err
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var frame callFrame
		if err := dec.Decode(&frame); err != nil {
			return
		}
		reply := s.dispatch(frame)
		if err := enc.Encode(&reply); err != nil {
			s.logger.Warn("writing reply failed", tag.CallID(frame.ID), tag.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(frame callFrame) replyFrame {
	if frame.Interface != s.descriptor.Name {
		return replyFrame{
			ID:    frame.ID,
			Error: fmt.Sprintf("interface %q is not exported here", frame.Interface),
		}
	}
	if !s.descriptor.Exposes(frame.Method) {
		return replyFrame{
			ID:    frame.ID,
			Error: fmt.Sprintf("method %q is not part of %s", frame.Method, s.descriptor.Name),
		}
	}
	s.mu.Lock()
	handler, ok := s.handlers[frame.Method]
	s.mu.Unlock()
	if !ok {
		return replyFrame{
			ID:    frame.ID,
			Error: fmt.Sprintf("method %q has no handler", frame.Method),
		}
	}

	result, err := handler(frame.Args)
	if err != nil {
		return replyFrame{ID: frame.ID, Error: err.Error()}
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("marshalling reply failed", tag.Method(frame.Method), tag.Error(err))
		return replyFrame{ID: frame.ID, Error: err.Error()}
	}
	return replyFrame{ID: frame.ID, Result: payload}
}
