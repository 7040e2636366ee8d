package capability

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capbridge/capbridge/common/caperror"
)

type pingService interface {
	Ping() error
}

func TestTypeNameNamedInterface(t *testing.T) {
	name, err := TypeName[pingService]()
	require.NoError(t, err)
	assert.Equal(t, "github.com/capbridge/capbridge/common/capability.pingService", name)
}

func TestTypeNameIsDeterministic(t *testing.T) {
	first, err := TypeName[pingService]()
	require.NoError(t, err)
	second, err := TypeName[pingService]()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTypeNameAnonymousInterfaceFallsBackToTokenScan(t *testing.T) {
	name, err := TypeName[interface{ io.Reader }]()
	require.NoError(t, err)
	assert.Equal(t, "io.Reader", name)
}

func TestTypeNameBuiltinFails(t *testing.T) {
	_, err := TypeName[int]()
	var notFound *caperror.DescriptorNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestTypeNameEmptyInterfaceFails(t *testing.T) {
	_, err := TypeName[any]()
	var notFound *caperror.DescriptorNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestResolveRegistered(t *testing.T) {
	registry := NewRegistry()
	registered, err := RegisterType[pingService](registry, "Ping")
	require.NoError(t, err)

	resolved, err := Resolve[pingService](registry)
	require.NoError(t, err)
	assert.Equal(t, registered, resolved)
	assert.Equal(t, []string{"Ping"}, resolved.Methods)
}

func TestResolveUnregisteredFails(t *testing.T) {
	_, err := Resolve[pingService](NewRegistry())
	var notFound *caperror.DescriptorNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "github.com/capbridge/capbridge/common/capability.pingService", notFound.CapabilityType)
}

func TestRegisterReplaces(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewDescriptor("svc.echo", "Echo"))
	registry.Register(NewDescriptor("svc.echo", "Echo", "Shout"))

	d, ok := registry.Lookup("svc.echo")
	require.True(t, ok)
	assert.Len(t, d.Methods, 2)
}

func TestDescriptorExposes(t *testing.T) {
	enumerated := NewDescriptor("svc.echo", "Echo")
	assert.True(t, enumerated.Exposes("Echo"))
	assert.False(t, enumerated.Exposes("Shout"))

	open := NewDescriptor("svc.anything")
	assert.True(t, open.Exposes("Echo"))
}
