package admin

import (
	"fmt"
	"sort"
	"strings"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/types"
)

// Report is a platform-neutral message: the chat front end renders it as an
// embed, the HTTP API as JSON, the CLI as text.
type Report struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
}

type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Text renders r for a terminal.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteByte('\n')
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteByte('\n')
	}
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "\n%s\n", f.Name)
		for _, line := range strings.Split(f.Value, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if r.Footer != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Footer)
	}
	return b.String()
}

// Performance bands for the hit rate.
const (
	BandExcellent = "Excellent"
	BandGood      = "Good"
	BandPoor      = "Needs Improvement"
	BandNoData    = "No Data"
)

// Band classifies a stats snapshot by hit rate.
func Band(s types.Stats) string {
	switch {
	case s.TotalRequests == 0:
		return BandNoData
	case s.HitRate >= 70:
		return BandExcellent
	case s.HitRate >= 40:
		return BandGood
	default:
		return BandPoor
	}
}

// StatsReport summarizes s, and the sweeper's progress when sweep is non-nil.
func StatsReport(s types.Stats, sweep *cache.SweepStats) Report {
	r := Report{
		Title: "Cache Statistics",
		Fields: []Field{
			{Name: "Performance", Value: fmt.Sprintf(
				"Hit Rate: %.2f%%\nTotal Requests: %d\nCache Hits: %d\nCache Misses: %d",
				s.HitRate, s.TotalRequests, s.Hits, s.Misses)},
			{Name: "Storage", Value: fmt.Sprintf(
				"Total Entries: %d / %d\nCache Sets: %d\nCache Deletes: %d\nCache Clears: %d\nEvictions: %d\nExpirations: %d",
				s.TotalEntries, s.MaxEntries, s.Sets, s.Deletes, s.Clears, s.Evictions, s.Expirations)},
			{Name: "Status", Value: fmt.Sprintf(
				"Performance: %s\nMemory Usage: %d entries (limit %d MB)\nEfficiency: %.2f%% hit rate",
				Band(s), s.TotalEntries, s.MemoryLimitMB, s.HitRate)},
		},
		Footer: "Cache performance metrics. Use clear to reset",
	}
	if sweep != nil {
		r.Fields = append(r.Fields, Field{Name: "Sweeper", Value: fmt.Sprintf(
			"Interval: %s\nRuns: %d\nRemoved: %d\nFaults: %d",
			sweep.Interval, sweep.Runs, sweep.Removed, sweep.Faults)})
	}
	return r
}

func ClearReport(n int, category string) Report {
	scope := "cache entries"
	if category != "" {
		scope = category + " entries"
	}
	return Report{
		Title:       "Cache Cleared",
		Description: fmt.Sprintf("Successfully cleared %d %s", n, scope),
	}
}

func CleanupReport(n int) Report {
	return Report{
		Title:       "Cache Cleanup",
		Description: fmt.Sprintf("Successfully cleaned up %d expired entries", n),
	}
}

// InfoReport lists entries grouped by category, keys sorted.
func InfoReport(info map[string]types.EntryInfo) Report {
	byCategory := make(map[string][]string)
	for key, e := range info {
		line := fmt.Sprintf("%s (hits %d", key, e.AccessCount)
		if e.Expired {
			line += ", expired"
		} else if e.ExpiresAt != nil {
			line += ", expires " + e.ExpiresAt.UTC().Format("2006-01-02 15:04:05Z")
		}
		byCategory[e.Category] = append(byCategory[e.Category], line+")")
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	r := Report{Title: "Cache Info", Description: fmt.Sprintf("%d entries", len(info))}
	for _, c := range categories {
		lines := byCategory[c]
		sort.Strings(lines)
		r.Fields = append(r.Fields, Field{Name: c, Value: strings.Join(lines, "\n")})
	}
	return r
}
