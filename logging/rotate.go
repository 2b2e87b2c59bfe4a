package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig configures a size based rotating log file.
type RotateConfig struct {
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// NewRotatingWriter returns a writer that rotates FilePath once it grows
// beyond MaxSize megabytes. Zero values fall back to lumberjack defaults.
func NewRotatingWriter(cfg RotateConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}
