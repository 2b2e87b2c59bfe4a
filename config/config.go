package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentrouter/logging"
	"github.com/hupe1980/agentrouter/workflow"
)

// Agent kinds accepted in AgentConfig.Kind.
const (
	KindBuiltin   = "builtin"
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindSandbox   = "sandbox"
	KindMCP       = "mcp"

	KindSequential = "sequential"
	KindParallel   = "parallel"
	KindLoop       = "loop"
)

// Config is the complete agentrouter configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Agents     []AgentConfig    `yaml:"agents"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	EnableCORS      bool          `yaml:"enable_cors"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     string        `yaml:"level"`
	Format    string        `yaml:"format"`  // json, text (slog) or console (zap)
	Backend   string        `yaml:"backend"` // slog or zap
	Output    string        `yaml:"output"`  // stdout, file or both
	AddSource bool          `yaml:"add_source"`
	File      LogFileConfig `yaml:"file"`
}

// LogFileConfig configures rotating file output.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// DispatcherConfig holds dispatch tuning.
type DispatcherConfig struct {
	DefaultAgent      string        `yaml:"default_agent"`
	MaxConcurrent     int           `yaml:"max_concurrent"`
	BatchConcurrency  int           `yaml:"batch_concurrency"`
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`
	HistorySize       int           `yaml:"history_size"`
}

// AgentConfig declares one executor. Which fields apply depends on Kind.
type AgentConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`

	// builtin
	Label string `yaml:"label"`

	// openai, anthropic
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Instruction string        `yaml:"instruction"`
	Prompt      string        `yaml:"prompt"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int64         `yaml:"max_tokens"`
	Stream      bool          `yaml:"stream"`
	Timeout     time.Duration `yaml:"timeout"`

	// sandbox
	URL          string            `yaml:"url"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Headers      map[string]string `yaml:"headers"`

	// mcp
	Tool              string   `yaml:"tool"`
	Transport         string   `yaml:"transport"` // stdio or sse
	Command           string   `yaml:"command"`
	Args              []string `yaml:"args"`
	Env               []string `yaml:"env"`
	ValidateArguments bool     `yaml:"validate_arguments"`

	// sequential, parallel, loop (children must be declared earlier)
	Children      []string      `yaml:"children"`
	MaxIterations int           `yaml:"max_iterations"`
	Interval      time.Duration `yaml:"interval"`
}

// WorkflowConfig optionally replaces the default phase table.
type WorkflowConfig struct {
	Transitions []TransitionConfig `yaml:"transitions"`
}

// TransitionConfig is one row of the phase table.
type TransitionConfig struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	InvokeAgent bool   `yaml:"invoke_agent"`
}

// Table builds the workflow table. Without transitions it returns
// workflow.DefaultTable.
func (w WorkflowConfig) Table() (workflow.Table, error) {
	if len(w.Transitions) == 0 {
		return workflow.DefaultTable(), nil
	}

	table := make(workflow.Table, len(w.Transitions))
	for _, tr := range w.Transitions {
		from := workflow.Phase(strings.TrimSpace(tr.From))
		if _, dup := table[from]; dup {
			return nil, fmt.Errorf("duplicate transition from %q", from)
		}
		table[from] = workflow.Transition{
			Next:        workflow.Phase(strings.TrimSpace(tr.To)),
			InvokeAgent: tr.InvokeAgent,
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}

	return table, nil
}

// Default returns a configuration serving the built-in "claude" agent on
// 127.0.0.1:8080.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			EnableCORS:      true,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Backend: "slog",
			Output:  "stdout",
			File: LogFileConfig{
				Path:       "logs/agentrouter.log",
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     7,
			},
		},
		Dispatcher: DispatcherConfig{
			MaxConcurrent:    10,
			BatchConcurrency: 4,
			HistorySize:      1000,
		},
		Agents: []AgentConfig{
			{Name: "claude", Kind: KindBuiltin},
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides using lookup (os.LookupEnv in
// production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	if v, ok := lookup("AGENTROUTER_HOST"); ok && v != "" {
		c.Server.Host = v
	}

	if v, ok := lookup("AGENTROUTER_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}

	if v, ok := lookup("AGENTROUTER_LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}

	if v, ok := lookup("AGENTROUTER_DEFAULT_AGENT"); ok && v != "" {
		c.Dispatcher.DefaultAgent = v
	}

	anthropicKey, _ := lookup("ANTHROPIC_API_KEY")
	openaiKey, _ := lookup("OPENAI_API_KEY")

	for i := range c.Agents {
		a := &c.Agents[i]
		if a.APIKey != "" {
			continue
		}
		switch a.Kind {
		case KindAnthropic:
			a.APIKey = anthropicKey
		case KindOpenAI:
			a.APIKey = openaiKey
		}
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Log.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json, text or console", c.Log.Format))
	}

	switch c.Log.Backend {
	case "", "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q must be slog or zap", c.Log.Backend))
	}

	switch c.Log.Output {
	case "", "stdout", "file", "both":
	default:
		errs = append(errs, fmt.Errorf("log.output %q must be stdout, file or both", c.Log.Output))
	}

	if c.Dispatcher.MaxConcurrent < 0 {
		errs = append(errs, errors.New("dispatcher.max_concurrent must not be negative"))
	}

	if len(c.Agents) == 0 {
		errs = append(errs, errors.New("at least one agent must be configured"))
	}

	names := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if err := a.validate(); err != nil {
			errs = append(errs, fmt.Errorf("agents[%d]: %w", i, err))
		}
		for _, child := range a.Children {
			if _, ok := names[child]; !ok {
				errs = append(errs, fmt.Errorf("agents[%d]: child %q must be declared before %q", i, child, a.Name))
			}
		}
		if _, dup := names[a.Name]; dup {
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate name %q", i, a.Name))
		}
		names[a.Name] = struct{}{}
	}

	if d := c.Dispatcher.DefaultAgent; d != "" {
		if _, ok := names[d]; !ok {
			errs = append(errs, fmt.Errorf("dispatcher.default_agent %q is not a configured agent", d))
		}
	}

	if _, err := c.Workflow.Table(); err != nil {
		errs = append(errs, fmt.Errorf("workflow: %w", err))
	}

	return errors.Join(errs...)
}

func (a AgentConfig) validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("name is required")
	}

	switch a.Kind {
	case KindBuiltin:
	case KindOpenAI, KindAnthropic:
		if a.Model == "" {
			return fmt.Errorf("%s agent %q requires model", a.Kind, a.Name)
		}
	case KindSandbox:
		if a.URL == "" {
			return fmt.Errorf("sandbox agent %q requires url", a.Name)
		}
	case KindMCP:
		if a.Tool == "" {
			return fmt.Errorf("mcp agent %q requires tool", a.Name)
		}
		switch a.Transport {
		case "", "stdio":
			if a.Command == "" {
				return fmt.Errorf("mcp agent %q requires command for stdio transport", a.Name)
			}
		case "sse":
			if a.URL == "" {
				return fmt.Errorf("mcp agent %q requires url for sse transport", a.Name)
			}
		default:
			return fmt.Errorf("mcp agent %q: unknown transport %q", a.Name, a.Transport)
		}
	case KindSequential, KindParallel:
		if len(a.Children) == 0 {
			return fmt.Errorf("%s agent %q requires children", a.Kind, a.Name)
		}
	case KindLoop:
		if len(a.Children) != 1 {
			return fmt.Errorf("loop agent %q requires exactly one child", a.Name)
		}
		if a.MaxIterations < 0 {
			return fmt.Errorf("loop agent %q: max_iterations must not be negative", a.Name)
		}
	default:
		return fmt.Errorf("agent %q: unknown kind %q", a.Name, a.Kind)
	}

	if a.Kind != KindSequential && a.Kind != KindParallel && a.Kind != KindLoop && len(a.Children) > 0 {
		return fmt.Errorf("%s agent %q does not accept children", a.Kind, a.Name)
	}

	return nil
}
