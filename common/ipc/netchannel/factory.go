package netchannel

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
)

const (
	// DefaultDialTimeout bounds connection establishment.
	DefaultDialTimeout = 5 * time.Second
	// DefaultCallTimeout is the no-reply timeout for a single invocation.
	DefaultCallTimeout = 30 * time.Second

	socketSuffix = ".sock"
	// privilegedSocketDir hosts sockets of privileged registered endpoints.
	privilegedSocketDir = "/var/run"
)

type (
	// Config contains the config items for the unix socket channel
	Config struct {
		// SocketDir is the directory endpoint sockets live in
		SocketDir string `yaml:"socketDir"`
		// DialTimeout bounds connection establishment; zero means default
		DialTimeout time.Duration `yaml:"dialTimeout"`
		// CallTimeout is the per-call no-reply timeout; zero means default
		CallTimeout time.Duration `yaml:"callTimeout"`
	}

	// ProxyConstructor builds the typed client for a capability over the
	// generic caller of an activated connection.
	ProxyConstructor func(caller ipc.Caller) any

	// Factory produces connections over unix domain sockets. Endpoint names
	// map to socket paths under the configured directory.
	Factory struct {
		config      Config
		constructor ProxyConstructor
		logger      log.Logger
	}
)

var _ ipc.ChannelFactory = (*Factory)(nil)

// NewFactory creates a channel factory for the given socket directory.
func NewFactory(config Config, constructor ProxyConstructor, logger log.Logger) *Factory {
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	return &Factory{
		config:      config,
		constructor: constructor,
		logger:      logger,
	}
}

// NewConnection creates an un-activated connection to the endpoint's socket.
func (f *Factory) NewConnection(endpoint ipc.Endpoint) (ipc.Connection, error) {
	return &connection{
		factory:  f,
		endpoint: endpoint,
		logger:   log.With(f.logger, tag.Endpoint(endpoint.Name())),
		pending:  make(map[string]chan callResult),
	}, nil
}

func (f *Factory) socketPath(endpoint ipc.Endpoint) string {
	if endpoint.Registered() && endpoint.Options().Privileged {
		return filepath.Join(privilegedSocketDir, endpoint.Name()+socketSuffix)
	}
	return filepath.Join(f.config.SocketDir, endpoint.Name()+socketSuffix)
}

// Listen creates a unix listener for the named endpoint in dir, removing a
// stale socket file left behind by an unclean shutdown.
func Listen(dir string, name string) (net.Listener, error) {
	path := filepath.Join(dir, name+socketSuffix)
	_ = os.Remove(path)
	return net.Listen("unix", path)
}
