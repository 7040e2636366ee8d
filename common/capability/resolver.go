package capability

import (
	"reflect"
	"strings"

	"github.com/capbridge/capbridge/common/caperror"
)

// Resolve returns the runtime descriptor for capability type T, looking its
// qualified name up in the registry. Resolution is deterministic for a given
// type; it fails with caperror.DescriptorNotFound when the type has no
// qualified name or nothing is registered under it.
func Resolve[T any](r *Registry) (Descriptor, error) {
	name, err := TypeName[T]()
	if err != nil {
		return Descriptor{}, err
	}
	d, ok := r.Lookup(name)
	if !ok {
		return Descriptor{}, caperror.NewDescriptorNotFound(name)
	}
	return d, nil
}

// TypeName derives the qualified name for capability type T.
//
// Named types resolve to "pkgpath.Name" directly. Unnamed types fall back to
// scanning the type's textual rendering for the first dot-qualified token,
// which covers anonymous interfaces embedding a named one. Types whose
// rendering contains no such token (builtins, the empty interface) cannot be
// resolved.
func TypeName[T any]() (string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name(), nil
	}
	if name, ok := scanQualifiedToken(t.String()); ok {
		return name, nil
	}
	return "", caperror.NewDescriptorNotFound(t.String())
}

// scanQualifiedToken splits a textual type rendering into tokens and returns
// the first one shaped like a qualified name.
func scanQualifiedToken(rendering string) (string, bool) {
	tokens := strings.FieldsFunc(rendering, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '{', '}', ';', '(', ')', '*', '[', ']':
			return true
		}
		return false
	})
	for _, token := range tokens {
		if token == "interface" || token == "struct" || token == "func" {
			continue
		}
		if strings.Contains(token, ".") {
			return token, true
		}
	}
	return "", false
}
