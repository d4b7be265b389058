// Package sysutil holds process-level helpers used during startup.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel configures the global zerolog level from a string value.
// Supported (case-insensitive): debug, info, warn, error, fatal, panic.
// Unknown values fall back to info.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// IsTruthy reports whether an environment variable string should be read
// as true. Accepted (case-insensitive): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
