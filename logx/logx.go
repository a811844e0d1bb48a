// Package logx sets up the structured loggers shared by the rink packages
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// UserLevel is the level used by Default
var UserLevel = slog.LevelInfo

// LevelFromString parses debug, info, warn or error (case insensitive).
// An empty string is info.
func LevelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logx: unknown level %q", s)
}

// New returns a text logger writing records at level or above to w
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Default installs a logger at UserLevel as the slog default and returns it
func Default(w io.Writer) *slog.Logger {
	logger := New(w, UserLevel)
	slog.SetDefault(logger)
	return logger
}

// Discard drops every record; handy for tests and headless runs
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
