package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// NewDaemonCommand creates the daemon command
func NewDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the backup scheduler in the foreground",
		Long:  "Keep the agenda open, taking periodic backup snapshots until interrupted. Optionally serves Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			a.backup.Start(ctx)
			defer a.backup.Stop()

			var metricsSrv *http.Server
			if a.cfg.Metrics.Enabled {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				metricsSrv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Errorw("Metrics server failed", "error", err)
					}
				}()
				a.logger.Infow("Metrics endpoint listening", "addr", a.cfg.Metrics.Addr)
			}

			fmt.Println("Agenda daemon running, Ctrl+C to stop")
			<-ctx.Done()

			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					a.logger.Errorw("Metrics server shutdown failed", "error", err)
				}
			}
			return nil
		},
	}
}
