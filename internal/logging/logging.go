// Package logging builds the slog loggers used by fluid's commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the output encoding of a logger.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Format    Format
	Output    io.Writer // nil means os.Stderr
	AddSource bool
	Component string // added to every record when not empty
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Format: FormatText, Output: os.Stderr}
}

// ParseLevel parses debug, info, warn or error, in any case.
func ParseLevel(s string) (slog.Level, error) {
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
	return 0, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (want text or json)", s)
}

// NewLogger creates a new structured logger
func NewLogger(config Config) *slog.Logger {
	var output = config.Output
	if output == nil {
		output = os.Stderr
	}
	var opts = &slog.HandlerOptions{Level: config.Level, AddSource: config.AddSource}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	var logger = slog.New(handler)
	if config.Component != "" {
		logger = logger.With("component", config.Component)
	}
	return logger
}

// New parses level and format and returns a logger writing to w.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return NewLogger(Config{Level: lvl, Format: f, Output: w}), nil
}
