package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// WorkerOptions holds flags for the worker command.
type WorkerOptions struct {
	MetricsAddr     string
	ReportRetention bool
}

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued scans and merges until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Logger.Info("database health", slog.Any("stats", a.DB.Health(cmd.Context())))

			if opts.ReportRetention && a.Config.Reports.Retention > 0 {
				if _, err := a.Reports.CleanupOld(cmd.Context(), a.Config.Reports.Retention); err != nil {
					a.Logger.Warn("report cleanup failed", slog.Any("error", err))
				}
			}

			if opts.MetricsAddr != "" {
				metricsServer := newMetricsServer(opts.MetricsAddr)
				go func() {
					a.Logger.Info("serving metrics", slog.String("addr", opts.MetricsAddr))
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.Logger.Error("metrics server failed", slog.Any("error", err))
					}
				}()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = metricsServer.Shutdown(ctx)
				}()
			}

			// Run returns once the process receives SIGINT or SIGTERM
			if err := a.NewWorker().Run(); err != nil {
				return WrapExitError(ExitFailure, "worker stopped", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", ":9090", "address for the Prometheus endpoint, empty to disable")
	cmd.Flags().BoolVar(&opts.ReportRetention, "cleanup-reports", true, "remove reports older than REPORTS_RETENTION on start")

	return cmd
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
