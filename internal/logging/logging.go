// Package logging provides component-scoped structured loggers.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with the given component name.
// The level is taken from the LOG_LEVEL environment variable
// (debug, info, warn, error); unknown or empty values mean info.
func New(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// Nop returns a disabled logger, useful as a default in constructors.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
