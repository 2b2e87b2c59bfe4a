package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/workflow"
)

type taskFlags struct {
	agent   string
	context string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.agent, "agent", "", "agent to use (defaults to the configured default agent)")
	cmd.Flags().StringVar(&f.context, "context", "", "JSON context passed to the agent")
}

func (f *taskFlags) task(name string) (core.Task, error) {
	taskCtx, err := parseContext(f.context)
	if err != nil {
		return nil, fmt.Errorf("invalid --context: %w", err)
	}
	return core.NewTask(name, taskCtx), nil
}

func newRouteCmd(root *rootOptions) *cobra.Command {
	flags := &taskFlags{}

	cmd := &cobra.Command{
		Use:   "route <task>",
		Short: "Route a single task and print the result",
		Example: `  agentrouter route summarize
  agentrouter route --agent gpt --context '{"lang":"go"}' review`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := flags.task(args[0])
			if err != nil {
				return err
			}

			a, err := root.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := a.Dispatcher.Route(cmd.Context(), task, flags.agent)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"status":        "success",
				"result":        inv.Result,
				"phase":         inv.NextPhase,
				"invocation_id": inv.ID,
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newExecuteCmd(root *rootOptions) *cobra.Command {
	var (
		flags = &taskFlags{}
		phase string
	)

	cmd := &cobra.Command{
		Use:   "execute --phase <phase> <task>",
		Short: "Run one workflow step and print the next phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := flags.task(args[0])
			if err != nil {
				return err
			}

			a, err := root.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			parsed, err := a.Dispatcher.Engine().ParsePhase(phase)
			if err != nil {
				return err
			}

			inv, err := a.Dispatcher.Execute(cmd.Context(), parsed, task, flags.agent)
			if err != nil {
				return err
			}

			out := map[string]any{
				"status":     "success",
				"phase":      inv.Phase,
				"next_phase": inv.NextPhase,
				"invoked":    inv.Invoked,
			}
			if inv.Result != nil {
				out["result"] = inv.Result
			}

			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&phase, "phase", string(workflow.PhaseInit), "phase to leave")
	flags.register(cmd)

	return cmd
}
