// Package cli implements the goobie command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/config"
	"github.com/goobie-bot/goobie/metrics"
	"github.com/goobie-bot/goobie/sports"
)

const metricsNamespace = "goobie"

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
	Stats      bool
}

// App holds everything a command needs, built once per invocation.
type App struct {
	Config   *config.Config
	Flags    GlobalFlags
	Log      *slog.Logger
	Registry *prometheus.Registry
	Cache    *cache.Manager
	SportsDB *sports.SportsDB
	ESPN     *sports.ESPN

	Out io.Writer
}

// NewApp wires the cache, its metrics and both upstream clients from cfg.
func NewApp(cfg *config.Config, flags GlobalFlags, out, errOut io.Writer) *App {
	level := cfg.LogLevel
	if flags.Verbose {
		level = "debug"
	}
	log := config.NewLogger(errOut, level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := cache.NewManager(
		cache.WithTTLTable(cfg.TTLTable()),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
		cache.WithMemoryLimitMB(cfg.Cache.MemoryLimitMB),
		cache.WithEvictionPolicy(cfg.EvictionPolicy()),
		cache.WithMetrics(metrics.NewPrometheus(reg, metricsNamespace)),
		cache.WithLogger(log),
	)
	metrics.RegisterGauges(reg, metricsNamespace, m.Stats)

	client := sports.NewHTTPClient(cfg.UpstreamTimeout(), log)
	return &App{
		Config:   cfg,
		Flags:    flags,
		Log:      log,
		Registry: reg,
		Cache:    m,
		SportsDB: sports.NewSportsDB(client, m, sports.SportsDBConfig{
			BaseURL: cfg.Upstream.SportsDBBaseURL,
			APIKey:  cfg.Upstream.SportsDBAPIKey,
		}, log),
		ESPN: sports.NewESPN(client, m, cfg.Upstream.ESPNBaseURL, log),
		Out:  out,
	}
}

type appKey struct{}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func appFrom(ctx context.Context) *App {
	app, _ := ctx.Value(appKey{}).(*App)
	return app
}

// print writes v as indented JSON under --json, otherwise as text.
func (a *App) print(v any, text string) error {
	if a.Flags.JSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(a.Out, text)
	return err
}
