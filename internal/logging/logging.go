// Package logging builds the zap loggers used for diagnostics. User-facing
// output (banners, ERROR lines) is written by the commands, not logged.
package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options holds logging configuration.
type Options struct {
	Level  string
	Format string // "json" or "console"
	// Verbose forces debug level.
	Verbose bool
	Fields  map[string]string
}

// New creates a logger that writes to w.
func New(w io.Writer, opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts)
	if err != nil {
		return nil, err
	}
	enc := encoding(opts.Format)
	var encoder zapcore.Encoder
	if enc == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig(enc))
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig(enc))
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(w)))).With(fields(opts.Fields)...), nil
}

func parseLevel(opts Options) (zap.AtomicLevel, error) {
	if opts.Verbose {
		return zap.NewAtomicLevelAt(zap.DebugLevel), nil
	}
	name := strings.TrimSpace(opts.Level)
	if name == "" {
		name = "info"
	}
	level, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func encoding(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return "json"
	}
	return "console"
}

func encoderConfig(enc string) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if enc == "console" {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.CallerKey = zapcore.OmitKey
	}
	return cfg
}

func fields(m map[string]string) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.String(k, m[k]))
	}
	return out
}
