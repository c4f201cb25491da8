package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/report"
)

func cycleCmd(ctx context.Context) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one complete rebalancing cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			orch, _, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			d, err := orch.RunCycle(ctx)
			if err != nil {
				return err
			}

			history := orch.History(2)
			if len(history) > 1 {
				report.WriteDecision(os.Stdout, d, orch.LastAssessment(), history[1])
			} else {
				report.WriteDecision(os.Stdout, d, orch.LastAssessment(), nil)
			}

			if exportPath != "" {
				return orch.Export(d, exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "export the decision as JSON to this path")
	return cmd
}
