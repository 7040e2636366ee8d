package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/capbridge/capbridge/common/capability"
	"github.com/capbridge/capbridge/common/caperror"
	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
	"github.com/capbridge/capbridge/common/metrics"
)

// ErrHandleClosed is returned by Invoke after the handle has been closed.
var ErrHandleClosed = errors.New("remote capability handle is closed")

const failureEventBuffer = 16

type (
	// ErrorHandler receives every unexpected failure the handle observes. It
	// may be invoked from transport-owned goroutines, not only from the
	// goroutine calling Invoke, and must be safe to call from there. The
	// handle never retries on its own: it discards state, reports, and lets
	// the next Invoke reconnect.
	ErrorHandler func(err error)

	// Handle is a lazily-established, self-healing reference to a single
	// remote capability of type T reached through an inter-process channel.
	//
	// A handle owns at most one live (connection, proxy) pair, shared by all
	// concurrent callers. The pair is created on first use, replaced only
	// after the previous connection has been closed, and discarded whenever
	// any failure is observed. Capability type T must be resolvable to a
	// registered interface descriptor, see capability.Resolve.
	Handle[T any] struct {
		endpoint ipc.Endpoint
		factory  ipc.ChannelFactory
		onError  ErrorHandler
		registry *capability.Registry
		logger   log.Logger
		metrics  metrics.Handler

		mu         sync.Mutex
		conn       ipc.Connection
		proxy      T
		active     bool
		generation int64
		closed     bool

		events chan failureEvent
		done   chan struct{}
	}

	failureKind int

	// failureEvent is the single shape every failure channel converges on.
	// Tagging events with the generation of the connection that produced them
	// keeps a stale notification from invalidating a newer pair.
	failureEvent struct {
		kind       failureKind
		generation int64
		err        error
	}
)

const (
	failureResolution failureKind = iota
	failureInterrupt
	failureCall
)

func (k failureKind) String() string {
	switch k {
	case failureResolution:
		return "resolution"
	case failureInterrupt:
		return "interrupt"
	case failureCall:
		return "call"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// New creates a handle for the given endpoint. No I/O happens here; the first
// Invoke establishes the connection. onError must be safe to invoke from
// arbitrary goroutines.
func New[T any](
	endpoint ipc.Endpoint,
	factory ipc.ChannelFactory,
	onError ErrorHandler,
	opts ...Option,
) *Handle[T] {
	settings := newOptions(opts)
	h := &Handle[T]{
		endpoint: endpoint,
		factory:  factory,
		onError:  onError,
		registry: settings.registry,
		logger:   log.With(settings.logger, tag.Endpoint(endpoint.Name())),
		metrics:  settings.metrics,
		events:   make(chan failureEvent, failureEventBuffer),
		done:     make(chan struct{}),
	}
	go h.failureLoop()
	return h
}

// Invoke resolves a live proxy, reusing the cached pair when present, and runs
// fn with it synchronously. At most one resolution attempt is made per call;
// when resolution fails, fn is never run, any cached state is discarded, the
// error is reported to the error handler and also returned. A failure caused
// by the remote call itself does not surface here; it arrives through the
// transport's failure callback.
func (h *Handle[T]) Invoke(fn func(proxy T)) error {
	proxy, err := h.acquireProxy()
	if err != nil {
		if !errors.Is(err, ErrHandleClosed) {
			h.enqueue(failureEvent{kind: failureResolution, err: err})
		}
		return err
	}
	fn(proxy)
	return nil
}

// Close discards the cached pair, closing any live connection synchronously
// and exactly once, and stops failure reporting. Safe to call twice.
func (h *Handle[T]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var err error
	if h.active {
		err = h.discardLocked()
		h.metrics.ConnectionClosed(h.endpoint.Name())
	}
	h.mu.Unlock()

	close(h.done)
	return err
}

func (h *Handle[T]) acquireProxy() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero T
	if h.closed {
		return zero, ErrHandleClosed
	}
	if h.active {
		return h.proxy, nil
	}
	return h.establishLocked()
}

// establishLocked runs the full resolution sequence: descriptor, connection,
// callbacks, activation, proxy. Any failure leaves the handle with no cached
// pair and no live connection behind.
func (h *Handle[T]) establishLocked() (T, error) {
	var zero T

	descriptor, err := capability.Resolve[T](h.registry)
	if err != nil {
		h.logger.Error("cannot resolve interface descriptor for capability", tag.Error(err))
		return zero, err
	}

	conn, err := h.factory.NewConnection(h.endpoint)
	if err != nil {
		return zero, err
	}

	// Every attempt consumes a generation before its callbacks are registered,
	// so an event from a failed attempt's connection can never carry the
	// generation a later attempt commits.
	h.generation++
	gen := h.generation
	conn.SetExpectedInterface(descriptor)
	conn.SetInterruptHandler(func() {
		h.enqueue(failureEvent{
			kind:       failureInterrupt,
			generation: gen,
			err:        caperror.NewConnectionInterrupted(h.endpoint.Name()),
		})
	})
	conn.SetFailureHandler(func(callErr error) {
		h.enqueue(failureEvent{
			kind:       failureCall,
			generation: gen,
			err:        caperror.NewCallFailed(h.endpoint.Name(), callErr),
		})
	})

	if err := conn.Activate(); err != nil {
		_ = conn.Close()
		return zero, err
	}

	raw, err := conn.Proxy()
	if err != nil {
		_ = conn.Close()
		return zero, err
	}
	proxy, ok := raw.(T)
	if !ok {
		_ = conn.Close()
		err := caperror.NewProxyTypeMismatch(descriptor.Name, fmt.Sprintf("%T", raw))
		h.logger.Error("remote proxy does not satisfy requested capability", tag.Error(err))
		return zero, err
	}

	h.conn = conn
	h.proxy = proxy
	h.active = true
	h.metrics.ConnectionEstablished(h.endpoint.Name())
	h.logger.Info("established remote capability connection",
		tag.Capability(descriptor.Name),
		tag.ConnectionGeneration(gen),
	)
	return proxy, nil
}

// discardLocked closes the cached connection and empties the cache. The
// connection is closed exactly once: the cache slot is the only reference.
func (h *Handle[T]) discardLocked() error {
	err := h.conn.Close()
	h.conn = nil
	var zero T
	h.proxy = zero
	h.active = false
	return err
}

func (h *Handle[T]) enqueue(ev failureEvent) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

// failureLoop is the single routine that consumes every failure event, so the
// invalidate-then-report ordering can never be skipped.
func (h *Handle[T]) failureLoop() {
	for {
		select {
		case ev := <-h.events:
			h.handleFailure(ev)
		case <-h.done:
			return
		}
	}
}

func (h *Handle[T]) handleFailure(ev failureEvent) {
	h.mu.Lock()
	if h.active && ev.generation == h.generation {
		if err := h.discardLocked(); err != nil {
			h.logger.Warn("closing invalidated connection failed", tag.Error(err))
		}
	}
	h.mu.Unlock()

	h.logger.Warn("remote capability failure",
		tag.FailureKind(ev.kind.String()),
		tag.ConnectionGeneration(ev.generation),
		tag.Error(ev.err),
	)
	h.metrics.ConnectionFailure(h.endpoint.Name(), ev.kind.String())
	if h.onError != nil {
		h.onError(ev.err)
	}
}
