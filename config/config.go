// Package config resolves the bot's settings from defaults, an optional YAML
// file and the environment, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goobie-bot/goobie/eviction"
	"github.com/goobie-bot/goobie/expiration"
	"gopkg.in/yaml.v3"
)

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceTTLFile Source = "ttl_file"
	SourceEnv     Source = "env"
)

// Config holds the resolved configuration.
type Config struct {
	DiscordToken string   `yaml:"-"`
	AdminUserIDs []string `yaml:"admin_user_ids"`
	LogLevel     string   `yaml:"log_level"`

	Cache    CacheConfig    `yaml:"cache"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Admin    AdminConfig    `yaml:"admin"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]Source `yaml:"-"`

	// baseTTLSeconds is TTLSeconds before the TTL file was applied.
	baseTTLSeconds map[string]int
}

// fileConfig is the YAML config file. Pointers tell an explicit 0 from an absent key.
type fileConfig struct {
	AdminUserIDs []string `yaml:"admin_user_ids"`
	LogLevel     string   `yaml:"log_level"`

	Cache struct {
		MaxEntries             *int           `yaml:"max_entries"`
		MemoryLimitMB          *int           `yaml:"memory_limit_mb"`
		EvictionPolicy         string         `yaml:"eviction_policy"`
		CleanupIntervalSeconds *int           `yaml:"cleanup_interval_seconds"`
		CleanupBackoffSeconds  *int           `yaml:"cleanup_backoff_seconds"`
		TTLFile                string         `yaml:"ttl_file"`
		TTLSeconds             map[string]int `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Upstream struct {
		TimeoutSeconds  *int   `yaml:"timeout_seconds"`
		SportsDBBaseURL string `yaml:"sportsdb_base_url"`
		SportsDBAPIKey  string `yaml:"sportsdb_api_key"`
		ESPNBaseURL     string `yaml:"espn_base_url"`
	} `yaml:"upstream"`

	Admin struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"admin"`
}

// CacheConfig sizes and tunes the result cache. Durations are in seconds.
type CacheConfig struct {
	MaxEntries             int    `yaml:"max_entries"`
	MemoryLimitMB          int    `yaml:"memory_limit_mb"`
	EvictionPolicy         string `yaml:"eviction_policy"`
	CleanupIntervalSeconds int    `yaml:"cleanup_interval_seconds"`
	CleanupBackoffSeconds  int    `yaml:"cleanup_backoff_seconds"`

	// TTLFile points at a YAML file of per-category TTL overrides, watched for changes.
	TTLFile string `yaml:"ttl_file"`

	// TTLSeconds overrides individual categories; 0 means never expires.
	TTLSeconds map[string]int `yaml:"ttl_seconds"`
}

// UpstreamConfig points at the two sports APIs.
type UpstreamConfig struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	SportsDBBaseURL string `yaml:"sportsdb_base_url"`
	SportsDBAPIKey  string `yaml:"sportsdb_api_key"`
	ESPNBaseURL     string `yaml:"espn_base_url"`
}

type AdminConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration the bot runs with when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Cache: CacheConfig{
			MaxEntries:             100,
			MemoryLimitMB:          512,
			EvictionPolicy:         string(eviction.LRU),
			CleanupIntervalSeconds: 300,
			CleanupBackoffSeconds:  60,
			TTLSeconds:             map[string]int{},
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds:  10,
			SportsDBBaseURL: "https://www.thesportsdb.com/api/v1/json",
			SportsDBAPIKey:  "123",
			ESPNBaseURL:     "http://sports.core.api.espn.com/v2/sports",
		},
		Admin:   AdminConfig{ListenAddr: ":9090"},
		Sources: make(map[string]Source),
	}
}

// Load resolves configuration. path may be empty; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.baseTTLSeconds = make(map[string]int, len(cfg.Cache.TTLSeconds))
	for category, secs := range cfg.Cache.TTLSeconds {
		cfg.baseTTLSeconds[category] = secs
	}

	if cfg.Cache.TTLFile != "" {
		overrides, err := LoadTTLFile(cfg.Cache.TTLFile)
		if err != nil {
			return nil, err
		}
		for category, ttl := range overrides {
			if _, set := cfg.Cache.TTLSeconds[category]; set && cfg.Sources["cache.ttl."+category] == SourceEnv {
				continue
			}
			cfg.Cache.TTLSeconds[category] = int(ttl / time.Second)
			cfg.Sources["cache.ttl."+category] = SourceTTLFile
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	setString := func(dst *string, v, name string) {
		if v != "" {
			*dst = v
			cfg.Sources[name] = SourceFile
		}
	}
	setInt := func(dst *int, v *int, name string) {
		if v != nil {
			*dst = *v
			cfg.Sources[name] = SourceFile
		}
	}

	if len(fileCfg.AdminUserIDs) > 0 {
		cfg.AdminUserIDs = fileCfg.AdminUserIDs
		cfg.Sources["admin_user_ids"] = SourceFile
	}
	setString(&cfg.LogLevel, fileCfg.LogLevel, "log_level")
	setInt(&cfg.Cache.MaxEntries, fileCfg.Cache.MaxEntries, "cache.max_entries")
	setInt(&cfg.Cache.MemoryLimitMB, fileCfg.Cache.MemoryLimitMB, "cache.memory_limit_mb")
	setString(&cfg.Cache.EvictionPolicy, fileCfg.Cache.EvictionPolicy, "cache.eviction_policy")
	setInt(&cfg.Cache.CleanupIntervalSeconds, fileCfg.Cache.CleanupIntervalSeconds, "cache.cleanup_interval_seconds")
	setInt(&cfg.Cache.CleanupBackoffSeconds, fileCfg.Cache.CleanupBackoffSeconds, "cache.cleanup_backoff_seconds")
	setString(&cfg.Cache.TTLFile, fileCfg.Cache.TTLFile, "cache.ttl_file")
	for category, secs := range fileCfg.Cache.TTLSeconds {
		cfg.Cache.TTLSeconds[category] = secs
		cfg.Sources["cache.ttl."+category] = SourceFile
	}
	setInt(&cfg.Upstream.TimeoutSeconds, fileCfg.Upstream.TimeoutSeconds, "upstream.timeout_seconds")
	setString(&cfg.Upstream.SportsDBBaseURL, fileCfg.Upstream.SportsDBBaseURL, "upstream.sportsdb_base_url")
	setString(&cfg.Upstream.SportsDBAPIKey, fileCfg.Upstream.SportsDBAPIKey, "upstream.sportsdb_api_key")
	setString(&cfg.Upstream.ESPNBaseURL, fileCfg.Upstream.ESPNBaseURL, "upstream.espn_base_url")
	setString(&cfg.Admin.ListenAddr, fileCfg.Admin.ListenAddr, "admin.listen_addr")
	return nil
}

// EnvOr returns an environment variable or fallback if not set.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadFromEnv overlays environment variables onto cfg.
func LoadFromEnv(cfg *Config) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]Source)
	}

	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.DiscordToken = v
		cfg.Sources["discord_token"] = SourceEnv
	}
	if v := os.Getenv("ADMIN_USER_IDS"); v != "" {
		cfg.AdminUserIDs = splitList(v)
		cfg.Sources["admin_user_ids"] = SourceEnv
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		cfg.Sources["log_level"] = SourceEnv
	}
	if v := os.Getenv("CACHE_EVICTION_POLICY"); v != "" {
		cfg.Cache.EvictionPolicy = v
		cfg.Sources["cache.eviction_policy"] = SourceEnv
	}
	if v := os.Getenv("CACHE_TTL_FILE"); v != "" {
		cfg.Cache.TTLFile = v
		cfg.Sources["cache.ttl_file"] = SourceEnv
	}
	if v := os.Getenv("SPORTSDB_BASE_URL"); v != "" {
		cfg.Upstream.SportsDBBaseURL = v
		cfg.Sources["upstream.sportsdb_base_url"] = SourceEnv
	}
	if v := os.Getenv("SPORTSDB_API_KEY"); v != "" {
		cfg.Upstream.SportsDBAPIKey = v
		cfg.Sources["upstream.sportsdb_api_key"] = SourceEnv
	}
	if v := os.Getenv("ESPN_BASE_URL"); v != "" {
		cfg.Upstream.ESPNBaseURL = v
		cfg.Sources["upstream.espn_base_url"] = SourceEnv
	}
	if v := os.Getenv("ADMIN_LISTEN_ADDR"); v != "" {
		cfg.Admin.ListenAddr = v
		cfg.Sources["admin.listen_addr"] = SourceEnv
	}

	ints := []struct {
		env  string
		name string
		dst  *int
	}{
		{"CACHE_MAX_ENTRIES", "cache.max_entries", &cfg.Cache.MaxEntries},
		{"CACHE_MEMORY_LIMIT_MB", "cache.memory_limit_mb", &cfg.Cache.MemoryLimitMB},
		{"CACHE_CLEANUP_INTERVAL_SECONDS", "cache.cleanup_interval_seconds", &cfg.Cache.CleanupIntervalSeconds},
		{"CACHE_CLEANUP_BACKOFF_SECONDS", "cache.cleanup_backoff_seconds", &cfg.Cache.CleanupBackoffSeconds},
		{"UPSTREAM_TIMEOUT_SECONDS", "upstream.timeout_seconds", &cfg.Upstream.TimeoutSeconds},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.env, err)
		}
		*i.dst = n
		cfg.Sources[i.name] = SourceEnv
	}

	if cfg.Cache.TTLSeconds == nil {
		cfg.Cache.TTLSeconds = map[string]int{}
	}
	for _, category := range expiration.DefaultTable().Categories() {
		env := "CACHE_TTL_" + strings.ToUpper(category)
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		cfg.Cache.TTLSeconds[category] = n
		cfg.Sources["cache.ttl."+category] = SourceEnv
	}
	return nil
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries must be >= 0, got %d", c.Cache.MaxEntries))
	}
	if c.Cache.MemoryLimitMB < 0 {
		errs = append(errs, fmt.Errorf("cache.memory_limit_mb must be >= 0, got %d", c.Cache.MemoryLimitMB))
	}
	if _, err := eviction.ParsePolicyType(c.Cache.EvictionPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.CleanupIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache.cleanup_interval_seconds must be > 0, got %d", c.Cache.CleanupIntervalSeconds))
	}
	if c.Upstream.TimeoutSeconds <= 0 || c.Upstream.TimeoutSeconds > 60 {
		errs = append(errs, fmt.Errorf("upstream.timeout_seconds must be in 1..60, got %d", c.Upstream.TimeoutSeconds))
	}
	for category, secs := range c.Cache.TTLSeconds {
		if secs < 0 {
			errs = append(errs, fmt.Errorf("ttl for %q must be >= 0, got %d", category, secs))
		}
	}
	return errors.Join(errs...)
}

// EvictionPolicy returns the parsed policy. Call after Validate.
func (c *Config) EvictionPolicy() eviction.PolicyType {
	t, _ := eviction.ParsePolicyType(c.Cache.EvictionPolicy)
	return t
}

// TTLTable returns the default table overlaid with configured overrides.
func (c *Config) TTLTable() *expiration.Table {
	overrides := make(map[string]time.Duration, len(c.Cache.TTLSeconds))
	for category, secs := range c.Cache.TTLSeconds {
		overrides[category] = time.Duration(secs) * time.Second
	}
	return expiration.DefaultTable().With(overrides)
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.Cache.CleanupIntervalSeconds) * time.Second
}

func (c *Config) CleanupBackoff() time.Duration {
	return time.Duration(c.Cache.CleanupBackoffSeconds) * time.Second
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

/*
ReloadTTL builds the table to use after the TTL file changed.

Categories set in the environment keep their value. Categories the file no
longer mentions fall back to the config file or the built-in defaults.
*/
func (c *Config) ReloadTTL(fileOverrides map[string]time.Duration) *expiration.Table {
	base := c.baseTTLSeconds
	if base == nil {
		base = make(map[string]int, len(c.Cache.TTLSeconds))
		for category, secs := range c.Cache.TTLSeconds {
			if c.Sources["cache.ttl."+category] != SourceTTLFile {
				base[category] = secs
			}
		}
	}

	merged := make(map[string]time.Duration, len(base)+len(fileOverrides))
	for category, secs := range base {
		merged[category] = time.Duration(secs) * time.Second
	}
	for category, ttl := range fileOverrides {
		if c.Sources["cache.ttl."+category] == SourceEnv {
			continue
		}
		merged[category] = ttl
	}
	return expiration.DefaultTable().With(merged)
}
