package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/monitor"
)

func monitorCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the situation assessment only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			source, err := buildSource(cfg)
			if err != nil {
				return err
			}

			mr, _, err := monitor.New(cfg, source).Assess(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Status: %s\n", mr.Status)
			fmt.Printf("Trigger Reason: %s\n", mr.TriggerReason)
			fmt.Printf("Max Position Drift: %.2f%% (%s)\n", mr.MaxPositionDrift*100, mr.MaxPositionTicker)
			fmt.Printf("Max Sector Drift: %.2f%% (%s)\n", mr.MaxSectorDrift*100, mr.MaxSector)
			fmt.Printf("Market Regime: %s\n", mr.Regime)
			fmt.Printf("Days Since Rebalance: %d\n", mr.DaysSinceRebalance)
			return nil
		},
	}
}
