package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger. Dev mode logs at debug level through a
// console writer, otherwise JSON lines at info level go to stderr. The
// result also becomes the global zerolog logger.
func Setup(dev bool) zerolog.Logger {
	return setup(os.Stderr, dev)
}

func setup(out io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	log.Logger = logger
	return logger
}

// WithContext attaches logger to ctx so library code can use log.Ctx(ctx).
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}
