// Package logging provides the structured logger shared by NenDB's internal
// components (WAL recovery, snapshot, GraphDB facade). It is a thin wrapper
// around zerolog, kept deliberately small: components take a zerolog.Logger
// value (built by New, or Discard in tests) rather than reaching for a
// package-level global, so multiple
// GraphDB instances in the same process don't fight over one global sink.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's levels with NenDB-local names so callers don't
// need to import zerolog just to configure a level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config configures a component logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// New builds a component-scoped zerolog.Logger. Pass the result into a
// GraphDB/WAL/snapshot constructor; each call to New is independent, so
// tests can build a silent logger (Output: io.Discard) without touching
// global state.
func New(component string, cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.JSONOutput {
		logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()
	}

	return logger.With().Str("component", component).Logger()
}

// Discard returns a logger that writes nowhere, for tests and for callers
// that configured no logging sink at all.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
