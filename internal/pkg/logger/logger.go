package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the process-wide logger. It writes JSON until Setup is called.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Setup configures Log, and the zerolog global, for the app mode: a console
// writer in dev, JSON in prod.
// An empty or unknown level falls back to debug in dev and info in prod.
func Setup(appMode, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if appMode == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
		if appMode == "dev" {
			lvl = zerolog.DebugLevel
		}
	}

	Log = zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "e-nagarpalika-portal").Logger()
	log.Logger = Log
	return Log
}

// With returns a child logger tagged with a component name
func With(component string) *zerolog.Logger {
	l := Log.With().Str("component", component).Logger()
	return &l
}
