package main

import (
	"context"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter"
	"github.com/hupe1980/agentrouter/config"
	"github.com/hupe1980/agentrouter/internal/app"
)

type rootOptions struct {
	configFile string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentrouter",
		Short:         "Route tasks to pluggable agents through a phase workflow",
		Version:       agentrouter.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate("agentrouter version {{.Version}}\n")

	cmd.AddCommand(
		newServeCmd(opts),
		newRouteCmd(opts),
		newExecuteCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// build loads configuration and assembles the application, logging to logOut.
func (o *rootOptions) build(ctx context.Context, logOut io.Writer) (*app.App, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	return app.New(ctx, cfg, func(ao *app.Options) {
		ao.Version = agentrouter.Version
		ao.LogOutput = logOut
		ao.Debug = o.debug
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func parseContext(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	var v any
	if err := sonic.UnmarshalString(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
