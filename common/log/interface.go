package log

import (
	"github.com/capbridge/capbridge/common/log/tag"
)

type (
	// Logger is the logging interface.
	// Usage example:
	//  logger.Info("connection established",
	//          tag.Endpoint("svc.echo"),
	//          tag.ConnectionGeneration(2),
	//	 )
	//  Note: msg should be static, do not use fmt.Sprintf() for msg. Anything dynamic should be tagged.
	Logger interface {
		Debug(msg string, tags ...tag.Tag)
		Info(msg string, tags ...tag.Tag)
		Warn(msg string, tags ...tag.Tag)
		Error(msg string, tags ...tag.Tag)
		Fatal(msg string, tags ...tag.Tag)
	}

	// WithLogger is an optional interface. Loggers implementing it return a new
	// instance with the given tags prepended; if it is not implemented, an
	// internal (not very efficient) prepender is used instead.
	WithLogger interface {
		With(tags ...tag.Tag) Logger
	}

	// SkipLogger is an optional interface. If implemented, Skip is called with
	// the number of extra stack trace frames to skip when logging the caller.
	SkipLogger interface {
		Skip(extraSkip int) Logger
	}
)
