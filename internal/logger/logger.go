// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger to write human readable output to stderr.
func Init(level string) {
	InitWriter(os.Stderr, level)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stderr}).
		With().Timestamp().Caller().Logger()
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// WithRunID tags every subsequent log line with the given run identifier.
func WithRunID(id string) {
	log.Logger = log.With().Str("run_id", id).Logger()
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a zerolog level.
// Anything else is treated as info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
