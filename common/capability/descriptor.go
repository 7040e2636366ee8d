package capability

type (
	// Descriptor is the runtime token identifying the method surface of a
	// remote capability. The transport uses it to validate and authorize a
	// proxy before any call goes through.
	Descriptor struct {
		// Name is the qualified name the descriptor is registered under.
		Name string
		// Methods lists the remote method names the capability exposes.
		// Transports may use it to reject unknown methods; an empty list
		// means the surface is not enumerated.
		Methods []string
	}
)

// NewDescriptor creates a descriptor for the given qualified name.
func NewDescriptor(name string, methods ...string) Descriptor {
	return Descriptor{
		Name:    name,
		Methods: methods,
	}
}

// Exposes reports whether the enumerated method surface contains method. A
// descriptor without an enumerated surface exposes everything.
func (d Descriptor) Exposes(method string) bool {
	if len(d.Methods) == 0 {
		return true
	}
	for _, m := range d.Methods {
		if m == method {
			return true
		}
	}
	return false
}
