package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/admin"
	"github.com/goobie-bot/goobie/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cache sweeper, TTL watcher and admin/metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			if addr == "" {
				addr = app.Config.Admin.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return Serve(ctx, app, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Admin listen address (default from ADMIN_LISTEN_ADDR)")
	return cmd
}

// Handler builds the admin mux: cache admin routes, /metrics and /healthz.
func Handler(app *App, svc *admin.Service) http.Handler {
	mux := http.NewServeMux()
	svc.Routes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

/*
Serve runs until ctx is done:
  - the sweeper purging expired entries,
  - the TTL file watcher, when CACHE_TTL_FILE is set,
  - the admin HTTP server on ln.

The first component to fail cancels the others.
*/
func Serve(ctx context.Context, app *App, ln net.Listener) error {
	cfg := app.Config
	sweeper := cache.NewSweeper(app.Cache, cfg.CleanupInterval(), cfg.CleanupBackoff(), app.Log)
	svc := admin.NewService(app.Cache, admin.NewPermissions(cfg.AdminUserIDs, app.Log), sweeper, app.Log)

	srv := &http.Server{
		Handler:           Handler(app, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(gctx) })

	if path := cfg.Cache.TTLFile; path != "" {
		g.Go(func() error {
			return config.WatchTTLFile(gctx, path, app.Log, func(overrides map[string]time.Duration) {
				app.Cache.SetTTLTable(cfg.ReloadTTL(overrides))
			})
		})
	}

	g.Go(func() error {
		app.Log.Info("admin server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.Log.Info("shutting down")
		return srv.Shutdown(sctx)
	})

	err := g.Wait()
	app.Log.Info("stopped", "entries", app.Cache.Len())
	return err
}
