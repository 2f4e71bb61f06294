// Package logging sets up the diagnostic log. Everything logs through zerolog's
// global logger or a sub-logger made from it.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const EnvLogLevel = "LADDERS_LOG_LEVEL"

// ParseLevel understands zerolog's level names. Empty means info; anything
// unknown is reported.
func ParseLevel(raw string) (zerolog.Level, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zerolog.InfoLevel, true
	}
	if raw == "warning" {
		return zerolog.WarnLevel, true
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

// Configure points the global logger at stderr in console form, at level, or
// at LADDERS_LOG_LEVEL when that is set.
func Configure(level string) {
	ConfigureTo(os.Stderr, level)
}

func ConfigureTo(out io.Writer, level string) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		level = v
	}
	lvl, ok := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	if !ok {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
	}
}

// For makes the logger for one part of the program.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
