package app

import (
	"io"
	"os"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/logging"
)

// NewLogger builds the process logger from cfg. out replaces stdout when
// non-nil. The returned flush function must be called before exit.
func NewLogger(cfg config.LogConfig, out io.Writer) (logging.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if out == nil {
		out = os.Stdout
	}

	rotate := logging.RotateConfig{
		FilePath:   cfg.File.Path,
		MaxSize:    cfg.File.MaxSize,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAge,
		Compress:   cfg.File.Compress,
	}

	if cfg.Backend == "zap" {
		format := cfg.Format
		if format == "text" {
			format = "console"
		}

		z := logging.NewZapAdapter(logging.NewZapLogger(logging.ZapConfig{
			Level:  level,
			Format: format,
			Output: cfg.Output,
			File:   rotate,
			Writer: out,
		}))

		// Sync fails on terminals; the error carries no information.
		return z, func() error {
			_ = z.Sync()
			return nil
		}, nil
	}

	flush := func() error { return nil }

	switch cfg.Output {
	case "file":
		w := logging.NewRotatingWriter(rotate)
		out, flush = w, w.Close
	case "both":
		w := logging.NewRotatingWriter(rotate)
		out, flush = io.MultiWriter(out, w), w.Close
	}

	format := cfg.Format
	if format == "console" {
		format = "text"
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    out,
		AddSource: cfg.AddSource,
		Component: "agentrouter",
	}), flush, nil
}

// withComponent tags l with a component name when it supports it.
func withComponent(l logging.Logger, name string) logging.Logger {
	if rl, ok := l.(*logging.RouterLogger); ok {
		return rl.WithComponent(name)
	}
	return l
}
