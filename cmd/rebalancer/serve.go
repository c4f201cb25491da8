package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/httpapi"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/orchestrator"
)

func serveCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only API and run cycles on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			orch, reg, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			serverCfg := httpapi.DefaultConfig()
			if cfg.Server.Host != "" {
				serverCfg.Host = cfg.Server.Host
			}
			if cfg.Server.Port > 0 {
				serverCfg.Port = cfg.Server.Port
			}

			server := httpapi.NewServer(serverCfg, httpapi.NewHandlers(orch, reg), reg)

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			interval := time.Duration(cfg.Server.CycleIntervalMinutes) * time.Minute
			if interval <= 0 {
				interval = time.Hour
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			// First cycle runs immediately; failures are logged, not fatal,
			// so a transient upstream outage does not kill the server.
			runOnce(ctx, orch)

			for {
				select {
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				case err := <-errCh:
					return err
				case <-ticker.C:
					runOnce(ctx, orch)
				}
			}
		},
	}
}

func runOnce(ctx context.Context, orch *orchestrator.Orchestrator) {
	if _, err := orch.RunCycle(ctx); err != nil {
		log.Error().Err(err).Msg("cycle failed")
	}
}
