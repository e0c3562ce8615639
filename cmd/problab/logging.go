package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

var formatters = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"json":   log.JSONFormatter,
	"logfmt": log.LogfmtFormatter,
}

// newLogger builds the process logger from the global flags
func newLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	formatter, ok := formatters[format]
	if !ok {
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

func (g *Globals) logger() (*log.Logger, error) {
	return newLogger(stderr, g.LogLevel, g.LogFormat)
}
