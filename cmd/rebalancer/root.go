package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var configPath string

// Execute runs the rebalancer CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "rebalancer",
		Short: "Autonomous portfolio rebalancing agent",
		Long: "Assesses drift in a fixed-target portfolio and produces an autonomous\n" +
			"rebalancing decision through a three-stage pipeline: situation\n" +
			"assessment, scenario evaluation, and decision synthesis.",
	}

	flags := pflag.NewFlagSet("global", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to YAML config (built-in defaults when empty)")
	root.PersistentFlags().AddFlagSet(flags)

	root.AddCommand(cycleCmd(ctx))
	root.AddCommand(monitorCmd(ctx))
	root.AddCommand(serveCmd(ctx))

	return root.ExecuteContext(ctx)
}
