// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at w (stderr when nil) with the named
// level. Stdout is reserved for the protocol stream. Unknown levels fall
// back to info.
func Setup(w io.Writer, level string) zerolog.Level {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return lvl
}

// Module returns a sub-logger tagged with module=name.
func Module(name string) zerolog.Logger {
	return log.With().Str("module", name).Logger()
}
