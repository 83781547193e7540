package server

import (
	"github.com/go-errors/errors"
	"github.com/rs/zerolog"
	"io"
	"runtime/debug"
)

// DefaultLogger creates a JSON logger tagged with the app name and, when available, the commit
func DefaultLogger(appName string, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Str("app", appName).Logger()
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) == 40 {
				logger = logger.With().Str("commit", s.Value[:7]).Logger()
				break
			}
		}
	}

	return logger
}

func SetLevel(level string) error {
	if level == "" {
		return nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.WrapPrefix(err, "Could not parse log level", 0)
	}

	zerolog.SetGlobalLevel(lvl)
	return nil
}
