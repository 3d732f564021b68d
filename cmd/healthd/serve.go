package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	health "github.com/fableford/uptime-health-go"
	"github.com/fableford/uptime-health-go/internal/config"
	"github.com/fableford/uptime-health-go/internal/version"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, readiness and status endpoints over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", a.cfg.HTTP.Addr, err)
			}
			return a.serve(cmd.Context(), ln)
		},
	}

	cmd.Flags().StringP("addr", "a", config.DefaultHTTPAddr, "address to bind the HTTP server")
	cmd.Flags().Bool("metrics", true, "expose Prometheus metrics on /metrics")
	_ = a.v.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag(config.KeyMetricsEnabled, cmd.Flags().Lookup("metrics"))

	return cmd
}

func (a *app) newHandler() http.Handler {
	cfg := a.cfg

	svcOpts := []health.ServiceOption{health.WithLogger(a.logger)}
	var handlerOpts []health.HandlerOption
	if cfg.Metrics.Enabled {
		m := health.NewMetrics()
		svcOpts = append(svcOpts, health.WithMetrics(m))
		handlerOpts = append(handlerOpts, health.WithMetricsHandler(m.Handler()))
	}

	ver := cfg.Service.Version
	if ver == "" {
		ver = version.Version
	}

	svc := health.NewService(a.newEvaluator(), ver, cfg.Service.Environment, svcOpts...)
	svc.GitCommit = version.Revision
	svc.BuildTime = version.BuildTime()
	svc.Hostname, _ = os.Hostname()

	return health.NewRouter(health.NewHTTPHandler(svc, handlerOpts...), a.logger)
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts it down
// within the configured timeout.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.newHandler(),
		ReadHeaderTimeout: a.cfg.HTTP.ReadHeaderTimeout,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		a.logger.Info("http server listening", "addr", ln.Addr().String(), "service", a.cfg.Service.Name)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		a.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("http server failure", "error", err)
		return err
	}

	a.logger.Info("http server stopped")
	return nil
}
