package sports

import (
	"sort"
	"strings"
	"time"
)

// TeamInfo is what the bot knows about a followed team without asking anyone.
type TeamInfo struct {
	Key        string
	Name       string
	SportsDBID string

	// ESPN path segments: /sports/{Sport}/leagues/{League}/teams/{ESPNID}.
	Sport  string
	League string
	ESPNID string

	Stadium string

	// Window is how far ahead to look for the next game.
	Window time.Duration
}

const twoWeeks = 14 * 24 * time.Hour

var teams = map[string]TeamInfo{
	"galaxy": {
		Key: "galaxy", Name: "LA Galaxy", SportsDBID: "134153",
		Sport: "soccer", League: "usa.1", ESPNID: "187",
		Stadium: "Dignity Health Sports Park", Window: twoWeeks,
	},
	"dodgers": {
		Key: "dodgers", Name: "Los Angeles Dodgers", SportsDBID: "1416",
		Sport: "baseball", League: "mlb", ESPNID: "19",
		Stadium: "Dodger Stadium", Window: twoWeeks,
	},
	"lakers": {
		Key: "lakers", Name: "Los Angeles Lakers", SportsDBID: "134154",
		Sport: "basketball", League: "nba", ESPNID: "13",
		// The NBA season starts late; look further ahead to catch October.
		Stadium: "Crypto.com Arena", Window: 60 * 24 * time.Hour,
	},
	"rams": {
		Key: "rams", Name: "Los Angeles Rams", SportsDBID: "135907",
		Sport: "football", League: "nfl", ESPNID: "14",
		Stadium: "SoFi Stadium", Window: twoWeeks,
	},
	"kings": {
		Key: "kings", Name: "Los Angeles Kings", SportsDBID: "134852",
		Sport: "hockey", League: "nhl", ESPNID: "8",
		Stadium: "Crypto.com Arena", Window: twoWeeks,
	},
}

// LookupTeam finds a followed team by key, ignoring case.
func LookupTeam(key string) (TeamInfo, bool) {
	t, ok := teams[strings.ToLower(strings.TrimSpace(key))]
	return t, ok
}

// Teams lists the followed teams ordered by key.
func Teams() []TeamInfo {
	out := make([]TeamInfo, 0, len(teams))
	for _, t := range teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TeamKeys lists the keys accepted by LookupTeam.
func TeamKeys() []string {
	keys := make([]string, 0, len(teams))
	for _, t := range Teams() {
		keys = append(keys, t.Key)
	}
	return keys
}
