package main

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fibre/internal/errors"
	"github.com/vango-dev/fibre/pkg/inspect"
	"github.com/vango-dev/fibre/pkg/middleware"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		addr     string
		demoName string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo through the inspector",
		Long: `Mount a demo and serve its document through the inspector.

Routes:
  /ws            binary mutation stream and event channel
  /snapshot      current body HTML
  /query?xpath=  nodes matching an XPath expression
  /snapshots     stored snapshots (GET, POST /{name}, GET /{name})
  /metrics       Prometheus metrics

Examples:
  fibre serve
  fibre serve --demo toggle --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspector.Addr = addr
			}
			logger := cfg.NewLogger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			a, err := startApp(startCtx, cfg, demoName, appOptions{
				logger:   logger,
				registry: reg,
				frames:   true,
			})
			cancel()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			iopts := []inspect.Option{
				inspect.WithStore(store),
				inspect.WithGatherer(reg),
				inspect.WithLogger(logger),
				inspect.WithCheckOrigin(checkOrigin(cfg.Inspector.AllowedOrigins)),
				inspect.WithMiddleware(middleware.OpenTelemetry(
					middleware.WithRequestFilter(func(r *http.Request) bool {
						return r.URL.Path != "/metrics"
					}),
				)),
			}
			if cfg.Metrics.Enabled {
				iopts = append(iopts, inspect.WithMetrics(middleware.NewMetrics(
					middleware.WithNamespace(cfg.Metrics.Namespace),
					middleware.WithRegistry(reg),
				)))
			}
			srv := inspect.New(a.sched, iopts...)
			defer srv.Close()

			ln, err := net.Listen("tcp", cfg.Inspector.Addr)
			if err != nil {
				return errors.New("F091").WithField("inspector.addr").Wrap(err)
			}
			httpSrv := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			success(cmd, "Serving %s on http://%s", demoName, ln.Addr())
			info(cmd, "Snapshots: %s", cfg.Snapshots.Backend)

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.Serve(ln) }()

			select {
			case err := <-errCh:
				if !stderrors.Is(err, http.ErrServerClosed) {
					return errors.New("F091").Wrap(err)
				}
				return nil
			case <-ctx.Done():
			}

			info(cmd, "Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Close()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return errors.New("F091").Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from fibre.yaml)")
	cmd.Flags().StringVarP(&demoName, "demo", "d", "todos", "Demo to mount")

	return cmd
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and the listed ones. "*" accepts every origin.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
