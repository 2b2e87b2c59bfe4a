// Package logging defines the minimal Logger interface used across agentrouter
// together with concrete backends: an slog based RouterLogger (JSON or tinted
// text output), a zap adapter and a rotating file writer.
//
// Library code accepts a Logger and defaults to NoOpLogger so embedding
// applications decide where output goes:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text"})
//	d := dispatcher.New(func(o *dispatcher.Options) { o.Logger = logger })
package logging
