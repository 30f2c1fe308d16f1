// Package logging builds the zerolog logger used across pkgsync.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "PKGSYNC_LOG_LEVEL"
	EnvLogTimestamp = "PKGSYNC_LOG_TIMESTAMP"
	EnvLogNoColor   = "PKGSYNC_LOG_NOCOLOR"
)

// Config controls logger construction.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// DefaultConfig logs warnings and above; verbose lowers the level to debug.
// Color is disabled when out is not a terminal.
func DefaultConfig(out io.Writer, verbose bool) Config {
	cfg := Config{Level: zerolog.WarnLevel, NoColor: !isTerminal(out)}
	if verbose {
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = true
	}
	return cfg
}

// ApplyEnv overrides cfg from PKGSYNC_LOG_* variables. Unparseable values
// are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// New returns a console logger writing to out.
func New(out io.Writer, cfg Config) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(writer).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// NewFromEnv is New with DefaultConfig and environment overrides.
func NewFromEnv(out io.Writer, verbose bool) zerolog.Logger {
	cfg := DefaultConfig(out, verbose)
	ApplyEnv(&cfg, os.Getenv)
	return New(out, cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
