package sports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/api"
	"github.com/goobie-bot/goobie/expiration"
	"github.com/goobie-bot/goobie/keys"
	"github.com/goobie-bot/goobie/types"
)

const (
	DefaultESPNBaseURL = "http://sports.core.api.espn.com/v2/sports"

	// UnknownTeam stands in for a team name that could not be resolved.
	UnknownTeam = "TBD"

	espnDateFormat = "20060102"
	eventsLimit    = 10
)

// Ref is an ESPN hypermedia link.
type Ref struct {
	URL string `json:"$ref"`
}

type Competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
	Team     Ref    `json:"team"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
	Venue       struct {
		FullName string `json:"fullName"`
	} `json:"venue"`
}

// Event is one game as ESPN describes it.
type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []Competition `json:"competitions"`
}

// ParseEventTime parses ESPN's event timestamps, which sometimes omit seconds.
func ParseEventTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event time %q", s)
}

// Time is the event start, or the zero time if Date is missing or malformed.
func (e Event) Time() time.Time {
	t, _ := ParseEventTime(e.Date)
	return t
}

// Venue returns the first competition's venue name, if any.
func (e Event) Venue() string {
	if len(e.Competitions) == 0 {
		return ""
	}
	return e.Competitions[0].Venue.FullName
}

type listResponse struct {
	Items []Ref `json:"items"`
}

type teamRecord struct {
	DisplayName      string `json:"displayName"`
	Name             string `json:"name"`
	ShortDisplayName string `json:"shortDisplayName"`
	Abbreviation     string `json:"abbreviation"`
}

// bestName picks the first non-empty of the name fields, most descriptive first.
func (r teamRecord) bestName() string {
	for _, n := range []string{r.DisplayName, r.Name, r.ShortDisplayName, r.Abbreviation} {
		if n != "" {
			return n
		}
	}
	return UnknownTeam
}

type eventsQuery struct {
	team       TeamInfo
	start, end time.Time
}

func (q eventsQuery) key() string {
	return keys.GameData(q.team.Key, q.team.Sport, q.start.Format(espnDateFormat), q.end.Format(espnDateFormat))
}

// ESPN resolves schedules and team names through the cache.
type ESPN struct {
	http    *HTTPClient
	baseURL string
	now     func() time.Time
	log     *slog.Logger

	teamName types.FetchFunc[string, string]
	events   types.FetchFunc[eventsQuery, []Event]
}

type ESPNOption func(*ESPN)

// WithESPNClock replaces time.Now when deciding what is upcoming.
func WithESPNClock(now func() time.Time) ESPNOption {
	return func(e *ESPN) { e.now = now }
}

func NewESPN(client *HTTPClient, c api.Cache, baseURL string, logger *slog.Logger, opts ...ESPNOption) *ESPN {
	if baseURL == "" {
		baseURL = DefaultESPNBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &ESPN{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     logger.With("upstream", "espn"),
	}
	for _, opt := range opts {
		opt(e)
	}

	wrapOpts := []cache.WrapOption{cache.WithWrapLogger(e.log), cache.WithSingleFlight()}
	e.teamName = cache.Wrap(c, expiration.TeamNames, keys.TeamName, e.fetchTeamName, wrapOpts...)
	e.events = cache.Wrap(c, expiration.GameData, eventsQuery.key, e.fetchEvents, wrapOpts...)
	return e
}

/*
TeamName resolves an ESPN team reference URL to a display name.

An empty ref, or a lookup that fails, yields UnknownTeam. Failures are not
cached, so the next call tries again; the error is returned alongside for
callers that care.
*/
func (e *ESPN) TeamName(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return UnknownTeam, nil
	}
	name, err := e.teamName(ctx, ref)
	if err != nil {
		e.log.Warn("team name lookup failed", "ref", ref, "error", err)
		return UnknownTeam, err
	}
	return name, nil
}

// Events lists a team's games between start and end, by calendar day.
func (e *ESPN) Events(ctx context.Context, team TeamInfo, start, end time.Time) ([]Event, error) {
	return e.events(ctx, eventsQuery{team: team, start: start, end: end})
}

// NextGame returns the earliest game starting after now within the team's window.
func (e *ESPN) NextGame(ctx context.Context, team TeamInfo) (*Event, error) {
	now := e.now()
	window := team.Window
	if window <= 0 {
		window = twoWeeks
	}

	events, err := e.Events(ctx, team, now, now.Add(window))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var upcoming []Event
	for _, ev := range events {
		t, perr := ParseEventTime(ev.Date)
		if perr != nil {
			e.log.Warn("skipping event with bad date", "event", ev.ID, "error", perr)
			continue
		}
		if t.After(now) {
			upcoming = append(upcoming, ev)
		}
	}
	if len(upcoming) == 0 {
		return nil, fmt.Errorf("next %s game: %w", team.Key, ErrNotFound)
	}

	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Time().Before(upcoming[j].Time()) })
	next := upcoming[0]
	e.log.Info("next game found", "team", team.Key, "event", next.ID, "date", next.Date)
	return &next, nil
}

// Matchup renders an event as "Away @ Home", resolving team names through the cache.
func (e *ESPN) Matchup(ctx context.Context, ev Event) string {
	if len(ev.Competitions) == 0 {
		return ev.Name
	}
	home, away := UnknownTeam, UnknownTeam
	for _, c := range ev.Competitions[0].Competitors {
		name, _ := e.TeamName(ctx, c.Team.URL)
		switch c.HomeAway {
		case "home":
			home = name
		case "away":
			away = name
		}
	}
	return away + " @ " + home
}

func (e *ESPN) fetchTeamName(ctx context.Context, ref string) (string, error) {
	var rec teamRecord
	if err := e.http.GetJSON(ctx, ref, nil, &rec); err != nil {
		return "", fmt.Errorf("fetching team %s: %w", ref, err)
	}
	return rec.bestName(), nil
}

func (e *ESPN) fetchEvents(ctx context.Context, q eventsQuery) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/%s/leagues/%s/teams/%s/events", e.baseURL, q.team.Sport, q.team.League, q.team.ESPNID)
	params := url.Values{
		"dates": {q.start.Format(espnDateFormat) + "-" + q.end.Format(espnDateFormat)},
		"limit": {fmt.Sprint(eventsLimit)},
	}

	var list listResponse
	if err := e.http.GetJSON(ctx, endpoint, params, &list); err != nil {
		return nil, fmt.Errorf("listing %s events: %w", q.team.Key, err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		if item.URL == "" {
			continue
		}
		var ev Event
		if err := e.http.GetJSON(ctx, item.URL, nil, &ev); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.log.Warn("skipping event", "ref", item.URL, "error", err)
			continue
		}
		events = append(events, ev)
	}
	e.log.Debug("events fetched", "team", q.team.Key, "count", len(events))
	return events, nil
}
