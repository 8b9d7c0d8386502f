// Package keys derives cache keys from the identifiers the fetchers work with.
//
// Every generator is pure and deterministic. Generators that take free-text
// names normalize them first so "LA Galaxy" and " la  galaxy" share one key.
// Each key starts with the name of the category it is normally written under;
// the manager does not rely on that, but it keeps keys readable in listings.
package keys

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize lower-cases name and joins its whitespace-separated words with "_".
// Leading, trailing and repeated whitespace collapse away.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// GameData keys a team's schedule lookup over an inclusive date range.
func GameData(team, sport, start, end string) string {
	return fmt.Sprintf("game_data_%s_%s_%s_%s", team, sport, start, end)
}

// TeamLogos keys logos looked up by upstream team id.
func TeamLogos(id string) string {
	return "team_logos_" + id
}

// TeamLogosByName keys logos found by searching a team name.
func TeamLogosByName(name string) string {
	return "team_logos_name_" + Normalize(name)
}

func VenueData(name string) string {
	return "venue_data_" + Normalize(name)
}

func TeamMetadata(name string) string {
	return "team_metadata_" + Normalize(name)
}

// TeamName keys a team display name by its reference URL. References are
// canonical already and are used verbatim.
func TeamName(ref string) string {
	return "team_name_" + ref
}

// Default builds a key from a function name, its positional arguments and its
// named parameters. Parameters are emitted in sorted name order so the key does
// not depend on map iteration.
func Default(name string, args []any, params map[string]any) string {
	parts := make([]string, 0, 1+len(args)+len(params))
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, "_")
}
