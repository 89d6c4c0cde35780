package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/refdata"
	"github.com/mesh-intelligence/formulary/internal/watch"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

const shutdownTimeout = 5 * time.Second

func (a *app) newWatchCmd() *cobra.Command {
	var (
		metricsAddr string
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the reference tree whenever the database file changes",
		Long: "Keeps a loaded repository and reloads it when another process commits to\n" +
			"the SQLite database. With --metrics-addr, repository metrics are served\n" +
			"at /metrics. Runs until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			repo, s, err := a.openRepository(ctx, refdata.WithMetrics(refdata.NewMetrics(reg)))
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Path() == "" {
				return userError("watch requires the %s backend", types.BackendSQLite)
			}
			if err := repo.Load(ctx); err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           metricsMux(reg),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server", "addr", metricsAddr, "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				a.logger.Info("serving metrics", "addr", metricsAddr)
			}

			w := watch.New(s.Path(), func() { a.reload(ctx, repo) }).
				WithDebounce(debounce).
				WithLogger(a.logger)
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return sysError("watch %s: %s", s.Path(), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint (disabled if empty)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before reloading")
	return cmd
}

// reload refreshes repo after an external change. A repository with pending
// changes is left alone.
func (a *app) reload(ctx context.Context, repo *refdata.Repository) {
	err := repo.Reload(ctx)
	switch {
	case errors.Is(err, types.ErrPendingChanges):
		a.logger.Warn("reload skipped", "reason", "pending changes")
	case err != nil:
		a.logger.Error("reload reference data", "err", err)
	default:
		names, err := repo.OrderedCategories(ctx)
		if err != nil {
			a.logger.Error("reload reference data", "err", err)
			return
		}
		a.logger.Info("reloaded reference data", "categories", len(names))
	}
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
