// Package app assembles an agentrouter process from configuration.
package app

import (
	"context"
	"errors"
	"io"

	mcpserverpkg "github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/dispatcher"
	"github.com/hupe1980/agentrouter/history"
	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/mcpserver"
	"github.com/hupe1980/agentrouter/server"
	"github.com/hupe1980/agentrouter/workflow"
)

// Options configures New.
type Options struct {
	// Version is reported by the HTTP health endpoint and the MCP handshake.
	Version string

	// LogOutput replaces stdout for log output.
	LogOutput io.Writer

	// Debug forces debug level logging.
	Debug bool
}

// App holds the assembled components of a running process.
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Dispatcher *dispatcher.Dispatcher

	version string
	closers []io.Closer
	flush   func() error
}

// New builds the logger, agents and dispatcher described by cfg.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	opts := Options{Version: "dev"}
	for _, fn := range optFns {
		fn(&opts)
	}

	logCfg := cfg.Log
	if opts.Debug {
		logCfg.Level = "debug"
	}

	logger, flush, err := NewLogger(logCfg, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		version: opts.Version,
		flush:   flush,
	}

	table, err := cfg.Workflow.Table()
	if err != nil {
		return nil, a.closeWith(err)
	}

	engine, err := workflow.New(func(o *workflow.Options) {
		o.Table = table
		o.Logger = withComponent(logger, "workflow")
	})
	if err != nil {
		return nil, a.closeWith(err)
	}

	callbacks := dispatcher.NewCallbackManager()
	if level, _ := logging.ParseLevel(logCfg.Level); level == logging.LogLevelDebug {
		callbacks.RegisterCallback(dispatcher.NewLoggingCallback(dispatcher.CallbackBeforeInvocation, withComponent(logger, "callbacks")))
	}

	historySize := cfg.Dispatcher.HistorySize
	if historySize <= 0 {
		historySize = history.DefaultCapacity
	}

	d := dispatcher.New(func(o *dispatcher.Options) {
		o.Config = dispatcher.Config{
			MaxConcurrentInvocations: cfg.Dispatcher.MaxConcurrent,
			InvocationTimeout:        cfg.Dispatcher.InvocationTimeout,
			BatchConcurrency:         cfg.Dispatcher.BatchConcurrency,
		}
		o.Engine = engine
		o.History = history.NewInMemoryStore(historySize)
		o.Callbacks = callbacks
		o.DefaultAgent = cfg.Dispatcher.DefaultAgent
		o.Logger = withComponent(logger, "dispatcher")
	})

	agentLogger := withComponent(logger, "agent")
	for _, ac := range cfg.Agents {
		ag, closer, err := BuildAgent(ctx, ac, d.GetAgent, agentLogger)
		if err != nil {
			return nil, a.closeWith(err)
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		d.Register(ag)
	}

	a.Dispatcher = d

	return a, nil
}

// HTTPServer returns the HTTP transport for the dispatcher.
func (a *App) HTTPServer() *server.Server {
	return server.New(a.Dispatcher, func(o *server.Options) {
		o.ReadTimeout = a.Config.Server.ReadTimeout
		o.WriteTimeout = a.Config.Server.WriteTimeout
		o.EnableCORS = a.Config.Server.EnableCORS
		o.Version = a.version
		o.Logger = withComponent(a.Logger, "server")
	})
}

// MCPServer returns the MCP transport for the dispatcher.
func (a *App) MCPServer() *mcpserverpkg.MCPServer {
	return mcpserver.New(a.Dispatcher, func(o *mcpserver.Options) {
		o.Version = a.version
		o.Logger = withComponent(a.Logger, "mcp")
	})
}

// Close releases agent connections and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.flush != nil {
		errs = append(errs, a.flush())
	}
	return errors.Join(errs...)
}

func (a *App) closeWith(err error) error {
	return errors.Join(err, a.Close())
}
