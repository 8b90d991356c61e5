package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cellstack/cellstack"
	httpAdapter "github.com/cellstack/cellstack/pkg/adapters/http"
	"github.com/cellstack/cellstack/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve <model.yaml>",
	Short: "Serve a model over HTTP",
	Long:  `Loads a stack descriptor and exposes it as a JSON API: descriptor inspection, initial-state generation and remote stepping. Prometheus metrics are served on /metrics.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		logger := newLogger(cmd)

		metrics := observability.NewMetrics("")
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}

		stack, err := reloadWithHooks(args[0], metrics)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/", httpAdapter.NewHandler(stack, logger))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr, "model", args[0])
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "8080", "Port to listen on")
}

// reloadWithHooks decodes the model and rebuilds it with metric hooks
// attached, since hooks are fixed at construction.
func reloadWithHooks(path string, metrics *observability.Metrics) (*cellstack.Stack, error) {
	stack, err := loadStack(path)
	if err != nil {
		return nil, err
	}
	return cellstack.New(stack.Cells(),
		cellstack.WithName(stack.Name()),
		cellstack.WithDType(stack.DType()),
		cellstack.WithLifecycleHooks(metrics.Hooks()),
	)
}
