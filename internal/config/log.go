package config

import (
	"fmt"
	"log/slog"
	"strings"
)

type Log struct {
	Format    LogFormat  `env:"LOG_FORMAT" envDefault:"JSON"`
	Level     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AddSource bool       `env:"LOG_ADD_SOURCE" envDefault:"true"`
}

// LogFormat is the output encoding of log records.
type LogFormat string

const (
	LogFormatJSON LogFormat = "JSON"
	// LogFormatText is colored, human readable output for local runs.
	LogFormatText LogFormat = "TEXT"
)

// UnmarshalText implements [encoding.TextUnmarshaler]. Matching is case-insensitive.
func (f *LogFormat) UnmarshalText(text []byte) error {
	switch format := LogFormat(strings.ToUpper(strings.TrimSpace(string(text)))); format {
	case LogFormatJSON, LogFormatText:
		*f = format
		return nil
	default:
		return fmt.Errorf("unknown log format: %q", text)
	}
}
