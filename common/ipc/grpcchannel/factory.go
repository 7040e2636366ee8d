package grpcchannel

import (
	"crypto/tls"

	"google.golang.org/grpc"

	"github.com/capbridge/capbridge/common/ipc"
	"github.com/capbridge/capbridge/common/log"
	"github.com/capbridge/capbridge/common/log/tag"
)

type (
	// TargetResolver maps an endpoint descriptor to a gRPC dial target. The
	// hostName syntax is defined in
	// https://github.com/grpc/grpc/blob/master/doc/naming.md.
	TargetResolver func(endpoint ipc.Endpoint) (string, error)

	// ProxyConstructor builds the typed client over the gRPC connection,
	// typically a generated NewXxxClient constructor.
	ProxyConstructor func(conn grpc.ClientConnInterface) any

	// Factory produces connections backed by gRPC client connections.
	Factory struct {
		resolve     TargetResolver
		constructor ProxyConstructor
		tlsConfig   *tls.Config
		logger      log.Logger
	}
)

var _ ipc.ChannelFactory = (*Factory)(nil)

// NewFactory creates a gRPC channel factory. A nil tlsConfig dials with
// insecure transport credentials.
func NewFactory(
	resolve TargetResolver,
	constructor ProxyConstructor,
	tlsConfig *tls.Config,
	logger log.Logger,
) *Factory {
	return &Factory{
		resolve:     resolve,
		constructor: constructor,
		tlsConfig:   tlsConfig,
		logger:      logger,
	}
}

// NewConnection resolves the endpoint to a dial target and returns an
// un-activated connection to it.
func (f *Factory) NewConnection(endpoint ipc.Endpoint) (ipc.Connection, error) {
	target, err := f.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	return newConnection(f, endpoint, target, log.With(f.logger,
		tag.Endpoint(endpoint.Name()),
		tag.Target(target),
	)), nil
}
