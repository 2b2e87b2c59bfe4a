package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentrouter/mcpserver"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dispatcher as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs go to stderr.
			a, err := root.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return mcpserver.ServeStdio(a.MCPServer())
		},
	}
}
