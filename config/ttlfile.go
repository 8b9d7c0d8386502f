package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ttlFile is the on-disk shape of CACHE_TTL_FILE:
//
//	ttl:
//	  game_data: 900
//	  team_logos: 0   # never expires
type ttlFile struct {
	TTL map[string]int `yaml:"ttl"`
}

// LoadTTLFile reads per-category TTL overrides in seconds.
func LoadTTLFile(path string) (map[string]time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ttl file %s: %w", path, err)
	}

	var f ttlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing ttl file %s: %w", path, err)
	}

	out := make(map[string]time.Duration, len(f.TTL))
	for category, secs := range f.TTL {
		if secs < 0 {
			return nil, fmt.Errorf("ttl file %s: %q has negative ttl %d", path, category, secs)
		}
		out[category] = time.Duration(secs) * time.Second
	}
	return out, nil
}

// debounce collapses the burst of events editors emit for one save.
const debounce = 100 * time.Millisecond

/*
WatchTTLFile reloads path whenever it changes and hands the parsed overrides
to onChange. It blocks until ctx is done.

The parent directory is watched rather than the file itself so that editors
which save by rename-over keep triggering reloads. A file that fails to parse
is logged and skipped; the previous table stays in effect.
*/
func WatchTTLFile(ctx context.Context, path string, logger *slog.Logger, onChange func(map[string]time.Duration)) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "ttl_watch", "path", path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log.Info("watching ttl overrides")

	reload := func() {
		overrides, err := LoadTTLFile(abs)
		if err != nil {
			log.Error("ttl reload failed, keeping previous table", "error", err)
			return
		}
		log.Info("ttl overrides reloaded", "categories", len(overrides))
		onChange(overrides)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)
		case <-pending:
			pending = nil
			reload()
		}
	}
}
