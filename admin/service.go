package admin

import (
	"fmt"
	"log/slog"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/api"
	"github.com/goobie-bot/goobie/types"
)

// SweepReporter is satisfied by *cache.Sweeper.
type SweepReporter interface {
	Stats() cache.SweepStats
}

// Service runs admin operations after checking the caller.
type Service struct {
	cache api.Admin
	perms *Permissions
	sweep SweepReporter
	log   *slog.Logger
}

// NewService wires the admin operations. sweep may be nil.
func NewService(c api.Admin, perms *Permissions, sweep SweepReporter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: c, perms: perms, sweep: sweep, log: logger.With("component", "admin")}
}

func (s *Service) authorize(c Caller, action string) error {
	if !s.perms.Allowed(c) {
		return fmt.Errorf("%s: %w", action, ErrDenied)
	}
	s.log.Info("admin action", "action", action, "user", c.UserID)
	return nil
}

func (s *Service) Stats(c Caller) (types.Stats, error) {
	if err := s.authorize(c, "stats"); err != nil {
		return types.Stats{}, err
	}
	return s.cache.Stats(), nil
}

// StatsReport is Stats rendered for display, with sweeper progress when available.
func (s *Service) StatsReport(c Caller) (Report, error) {
	st, err := s.Stats(c)
	if err != nil {
		return s.perms.DeniedReport(), err
	}
	s.log.Info("cache statistics displayed", "hit_rate", st.HitRate, "entries", st.TotalEntries)
	return StatsReport(st, s.sweepStats()), nil
}

func (s *Service) sweepStats() *cache.SweepStats {
	if s.sweep == nil {
		return nil
	}
	ss := s.sweep.Stats()
	return &ss
}

// Clear removes every entry, or only those in category when it is non-empty.
func (s *Service) Clear(c Caller, category string) (int, error) {
	if err := s.authorize(c, "clear"); err != nil {
		return 0, err
	}
	return s.cache.Clear(category), nil
}

// Cleanup purges expired entries now instead of waiting for the sweeper.
func (s *Service) Cleanup(c Caller) (int, error) {
	if err := s.authorize(c, "cleanup"); err != nil {
		return 0, err
	}
	return s.cache.CleanupExpired(), nil
}

func (s *Service) Info(c Caller) (map[string]types.EntryInfo, error) {
	if err := s.authorize(c, "info"); err != nil {
		return nil, err
	}
	return s.cache.Info(), nil
}
