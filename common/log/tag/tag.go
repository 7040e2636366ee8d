package tag

type (
	// Tag is the interface for logging tags.
	Tag interface {
		Key() string
		Value() interface{}
	}
)
