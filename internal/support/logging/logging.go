// Package logging configures the process-wide structured logger, grounded
// on how cmd/ployz/main.go calls into its own internal/support/logging
// package: a small set of named levels and a single Configure entry point
// called once at startup and again whenever --debug is toggled.
package logging

import (
	"log/slog"
	"os"
)

// Level names the handful of verbosities the daemon and CLI actually use.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Configure installs a text-handler structured logger at the given level
// as the process-wide default. Safe to call more than once (e.g. when a
// --debug flag flips the level after the root command's PersistentPreRunE
// runs).
func Configure(level Level) error {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.slogLevel()})
	slog.SetDefault(slog.New(handler))
	return nil
}
