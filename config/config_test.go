package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goobie-bot/goobie/eviction"
	"github.com/goobie-bot/goobie/expiration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DISCORD_TOKEN", "ADMIN_USER_IDS", "LOG_LEVEL",
	"CACHE_MAX_ENTRIES", "CACHE_MEMORY_LIMIT_MB", "CACHE_EVICTION_POLICY",
	"CACHE_CLEANUP_INTERVAL_SECONDS", "CACHE_CLEANUP_BACKOFF_SECONDS", "CACHE_TTL_FILE",
	"CACHE_TTL_GAME_DATA", "CACHE_TTL_TEAM_LOGOS", "CACHE_TTL_VENUE_DATA",
	"CACHE_TTL_TEAM_METADATA", "CACHE_TTL_TEAM_NAMES", "CACHE_TTL_DEFAULT",
	"UPSTREAM_TIMEOUT_SECONDS", "SPORTSDB_BASE_URL", "SPORTSDB_API_KEY",
	"ESPN_BASE_URL", "ADMIN_LISTEN_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// ===== DEFAULTS =====

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Cache.MaxEntries)
	assert.Equal(t, 512, cfg.Cache.MemoryLimitMB)
	assert.Equal(t, eviction.LRU, cfg.EvictionPolicy())
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval())
	assert.Equal(t, time.Minute, cfg.CleanupBackoff())
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout())
	assert.Equal(t, "123", cfg.Upstream.SportsDBAPIKey)
	assert.Equal(t, ":9090", cfg.Admin.ListenAddr)
	assert.Empty(t, cfg.Sources)

	ttl, ok := cfg.TTLTable().Lookup(expiration.GameData)
	require.True(t, ok)
	assert.Equal(t, 30*time.Minute, ttl)
}

// ===== LAYERING =====

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "goobie.yaml", `
log_level: debug
admin_user_ids: ["1", "2"]
cache:
  max_entries: 50
  eviction_policy: lfu
  ttl_seconds:
    game_data: 60
upstream:
  timeout_seconds: 5
`)
	t.Setenv("CACHE_MAX_ENTRIES", "75")
	t.Setenv("ADMIN_USER_IDS", " 10, 20 ,,30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SourceFile, cfg.Sources["log_level"])
	assert.Equal(t, 75, cfg.Cache.MaxEntries)
	assert.Equal(t, SourceEnv, cfg.Sources["cache.max_entries"])
	assert.Equal(t, []string{"10", "20", "30"}, cfg.AdminUserIDs)
	assert.Equal(t, eviction.LFU, cfg.EvictionPolicy())
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout())

	ttl, _ := cfg.TTLTable().Lookup(expiration.GameData)
	assert.Equal(t, time.Minute, ttl)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_BadEnvInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_MAX_ENTRIES", "lots")
	_, err := Load("")
	require.ErrorContains(t, err, "CACHE_MAX_ENTRIES")
}

func TestLoad_TTLEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL_TEAM_LOGOS", "0")
	t.Setenv("CACHE_TTL_VENUE_DATA", "120")

	cfg, err := Load("")
	require.NoError(t, err)

	table := cfg.TTLTable()
	ttl, ok := table.Lookup(expiration.TeamLogos)
	require.True(t, ok)
	assert.Zero(t, ttl, "0 means never expires")
	ttl, _ = table.Lookup(expiration.VenueData)
	assert.Equal(t, 2*time.Minute, ttl)
}

func TestLoad_TTLFileLosesToEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	ttlPath := writeFile(t, dir, "ttl.yaml", "ttl:\n  game_data: 900\n  team_names: 60\n")
	t.Setenv("CACHE_TTL_FILE", ttlPath)
	t.Setenv("CACHE_TTL_TEAM_NAMES", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 900, cfg.Cache.TTLSeconds[expiration.GameData])
	assert.Equal(t, SourceTTLFile, cfg.Sources["cache.ttl.game_data"])
	assert.Equal(t, 30, cfg.Cache.TTLSeconds[expiration.TeamNames])
}

// ===== VALIDATION =====

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ok", func(*Config) {}, ""},
		{"negative max entries", func(c *Config) { c.Cache.MaxEntries = -1 }, "max_entries"},
		{"unknown policy", func(c *Config) { c.Cache.EvictionPolicy = "random" }, "random"},
		{"zero interval", func(c *Config) { c.Cache.CleanupIntervalSeconds = 0 }, "cleanup_interval"},
		{"timeout too long", func(c *Config) { c.Upstream.TimeoutSeconds = 600 }, "timeout"},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds["game_data"] = -5 }, "game_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("GOOBIE_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOr("GOOBIE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", EnvOr("GOOBIE_TEST_UNSET", "fallback"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

// ===== TTL FILE =====

func TestLoadTTLFile(t *testing.T) {
	dir := t.TempDir()

	got, err := LoadTTLFile(writeFile(t, dir, "ok.yaml", "ttl:\n  game_data: 90\n  custom: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"game_data": 90 * time.Second, "custom": 0}, got)

	_, err = LoadTTLFile(writeFile(t, dir, "neg.yaml", "ttl:\n  game_data: -1\n"))
	assert.ErrorContains(t, err, "negative")

	_, err = LoadTTLFile(writeFile(t, dir, "bad.yaml", "ttl: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestWatchTTLFile_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ttl.yaml", "ttl:\n  game_data: 60\n")

	var (
		mu   sync.Mutex
		seen []map[string]time.Duration
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchTTLFile(ctx, path, quiet(), func(m map[string]time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, m)
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("ttl:\n  game_data: 120\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1]["game_data"] == 2*time.Minute
	}, 2*time.Second, 20*time.Millisecond)

	// A broken file is skipped.
	require.NoError(t, os.WriteFile(path, []byte("ttl:\n  game_data: -1\n"), 0o644))
	time.Sleep(3 * debounce)
	mu.Lock()
	last := seen[len(seen)-1]
	mu.Unlock()
	assert.Equal(t, 2*time.Minute, last["game_data"])

	cancel()
	require.NoError(t, <-done)
}

func TestReloadTTL(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	ttlPath := writeFile(t, dir, "ttl.yaml", "ttl:\n  game_data: 900\n  venue_data: 60\n")
	t.Setenv("CACHE_TTL_FILE", ttlPath)
	t.Setenv("CACHE_TTL_TEAM_NAMES", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	// venue_data dropped from the file, team_names edited but pinned by env.
	table := cfg.ReloadTTL(map[string]time.Duration{"game_data": time.Minute, "team_names": time.Hour})

	ttl, _ := table.Lookup(expiration.GameData)
	assert.Equal(t, time.Minute, ttl)
	ttl, _ = table.Lookup(expiration.VenueData)
	assert.Equal(t, 24*time.Hour, ttl)
	ttl, _ = table.Lookup(expiration.TeamNames)
	assert.Equal(t, 30*time.Second, ttl)
}

func TestReloadTTL_FallsBackToConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	ttlPath := writeFile(t, dir, "ttl.yaml", "ttl:\n  game_data: 900\n")
	cfgPath := writeFile(t, dir, "config.yaml", "cache:\n  ttl_file: "+ttlPath+"\n  ttl_seconds:\n    game_data: 600\n")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Cache.TTLSeconds["game_data"])

	table := cfg.ReloadTTL(map[string]time.Duration{})

	ttl, _ := table.Lookup(expiration.GameData)
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestLoad_FileExplicitZero(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", "cache:\n  max_entries: 0\n  memory_limit_mb: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Cache.MaxEntries)
	assert.Equal(t, 0, cfg.Cache.MemoryLimitMB)
	assert.Equal(t, SourceFile, cfg.Sources["cache.max_entries"])
}
