// Package logging configures the global zerolog logger shared by both tools.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel keeps operator output free of log noise unless asked for.
const DefaultLevel = "warn"

// Init initializes the global logger with the specified level and format.
// Format "json" writes JSON lines; anything else uses the console writer.
func Init(level, format string, w io.Writer) {
	logLevel := zerolog.WarnLevel

	switch strings.ToLower(level) {
	case "trace":
		logLevel = zerolog.TraceLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn", "warning":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	case "disabled", "off":
		logLevel = zerolog.Disabled
	}

	zerolog.SetGlobalLevel(logLevel)

	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()

		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}
