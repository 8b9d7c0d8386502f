package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCache() *cache.Manager {
	return cache.NewManager(cache.WithLogger(quiet()), cache.WithMaxEntries(0))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ===== HTTP CLIENT =====

func TestGetJSON_StatusMapping(t *testing.T) {
	var gotUA, gotAccept, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			gotUA = r.Header.Get("User-Agent")
			gotAccept = r.Header.Get("Accept")
			gotQuery = r.URL.RawQuery
			writeJSON(w, map[string]string{"hello": "world"})
		case "/missing":
			http.NotFound(w, r)
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/bad-json":
			_, _ = io.WriteString(w, "{not json")
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, quiet())
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok?a=1", map[string][]string{"b": {"2"}}, &out))
	assert.Equal(t, "world", out["hello"])
	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "a=1&b=2", gotQuery)

	assert.ErrorIs(t, c.GetJSON(ctx, srv.URL+"/missing", nil, &out), ErrNotFound)
	assert.ErrorIs(t, c.GetJSON(ctx, srv.URL+"/busy", nil, &out), ErrRateLimited)
	assert.ErrorIs(t, c.GetJSON(ctx, srv.URL+"/bad-json", nil, &out), ErrUpstream)
	assert.ErrorIs(t, c.GetJSON(ctx, srv.URL+"/other", nil, &out), ErrUpstream)
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, map[string]string{})
	}))
	defer srv.Close()

	c := NewHTTPClient(20*time.Millisecond, quiet())
	var out map[string]string
	assert.ErrorIs(t, c.GetJSON(context.Background(), srv.URL, nil, &out), ErrUpstream)
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/img.png" {
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second, quiet())
	assert.True(t, c.Exists(context.Background(), srv.URL+"/img.png"))
	assert.False(t, c.Exists(context.Background(), srv.URL+"/gone.png"))
}

// ===== THESPORTSDB =====

func TestExtractLogos(t *testing.T) {
	l := ExtractLogos(Team{Badge: "https://img/badge.png", Equipment: "https://img/kit.png", Stadium: "Park", StadiumThumb: "https://img/park.jpg"})
	assert.Equal(t, Logos{
		Logo:              "https://img/badge.png",
		LogoSmall:         "https://img/badge.png/small",
		Jersey:            "https://img/kit.png",
		Stadium:           "Park",
		StadiumThumb:      "https://img/park.jpg",
		StadiumThumbSmall: "https://img/park.jpg/small",
	}, l)

	l = ExtractLogos(Team{Banner: "https://img/banner.png", VenueID: "42"})
	assert.Equal(t, "https://img/banner.png", l.Logo)
	assert.Equal(t, "https://www.thesportsdb.com/images/media/venue/thumb/42.jpg", l.StadiumThumb)

	l = ExtractLogos(Team{})
	assert.Empty(t, l.LogoSmall)
	assert.Empty(t, l.StadiumThumbSmall)
}

type sportsDBFake struct {
	srv     *httptest.Server
	lookups atomic.Int32
	search  atomic.Int32
	venues  atomic.Int32
}

func newSportsDBFake(t *testing.T) *sportsDBFake {
	f := &sportsDBFake{}
	mux := http.NewServeMux()
	mux.HandleFunc("/123/lookupteam.php", func(w http.ResponseWriter, r *http.Request) {
		f.lookups.Add(1)
		switch r.URL.Query().Get("id") {
		case "134153":
			writeJSON(w, map[string]any{"teams": []map[string]string{{
				"idTeam": "134153", "strTeam": "LA Galaxy", "strBadge": "https://img/galaxy.png",
				"strStadium": "Dignity Health Sports Park", "idVenue": "16041",
			}}})
		default:
			writeJSON(w, map[string]any{"teams": nil})
		}
	})
	mux.HandleFunc("/123/searchteams.php", func(w http.ResponseWriter, r *http.Request) {
		f.search.Add(1)
		writeJSON(w, map[string]any{"teams": []map[string]string{
			{"strTeam": "Los Angeles Rams", "strBadge": "https://img/rams.png"},
			{"strTeam": "LA Galaxy", "strBadge": "https://img/galaxy.png"},
		}})
	})
	mux.HandleFunc("/123/searchvenues.php", func(w http.ResponseWriter, r *http.Request) {
		f.venues.Add(1)
		writeJSON(w, map[string]any{"venues": []map[string]string{
			{"strVenue": "SoFi Stadium", "strVenueThumb": "https://img/sofi.jpg", "strVenueImage": "https://img/sofi-big.jpg"},
		}})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func TestSportsDB_TeamLogosCached(t *testing.T) {
	f := newSportsDBFake(t)
	c := newCache()
	s := NewSportsDB(NewHTTPClient(time.Second, quiet()), c, SportsDBConfig{BaseURL: f.srv.URL}, quiet())
	ctx := context.Background()

	l, err := s.TeamLogos(ctx, "134153")
	require.NoError(t, err)
	assert.Equal(t, "https://img/galaxy.png", l.Logo)
	assert.Equal(t, "https://www.thesportsdb.com/images/media/venue/thumb/16041.jpg", l.StadiumThumb)

	_, err = s.TeamLogos(ctx, "134153")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.lookups.Load(), "second call served from cache")

	_, ok := c.Get(keys.TeamLogos("134153"))
	assert.True(t, ok)
}

func TestSportsDB_NotFoundIsNotCached(t *testing.T) {
	f := newSportsDBFake(t)
	c := newCache()
	s := NewSportsDB(NewHTTPClient(time.Second, quiet()), c, SportsDBConfig{BaseURL: f.srv.URL}, quiet())
	ctx := context.Background()

	_, err := s.TeamLogos(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.TeamLogos(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(2), f.lookups.Load())
	assert.Zero(t, c.Len())
}

func TestSportsDB_TeamMetadata(t *testing.T) {
	f := newSportsDBFake(t)
	c := newCache()
	s := NewSportsDB(NewHTTPClient(time.Second, quiet()), c, SportsDBConfig{BaseURL: f.srv.URL}, quiet())

	galaxy, ok := LookupTeam("Galaxy")
	require.True(t, ok)

	team, err := s.TeamMetadata(context.Background(), galaxy)
	require.NoError(t, err)
	assert.Equal(t, "LA Galaxy", team.Name)

	info := c.Info()
	require.Contains(t, info, keys.TeamMetadata("galaxy"))
	assert.Equal(t, "team_metadata", info[keys.TeamMetadata("galaxy")].Category)
}

func TestSportsDB_SearchByName(t *testing.T) {
	f := newSportsDBFake(t)
	c := newCache()
	s := NewSportsDB(NewHTTPClient(time.Second, quiet()), c, SportsDBConfig{BaseURL: f.srv.URL}, quiet())
	ctx := context.Background()

	l, err := s.TeamLogosByName(ctx, "galaxy")
	require.NoError(t, err)
	assert.Equal(t, "https://img/galaxy.png", l.Logo)

	v, err := s.Venue(ctx, "sofi")
	require.NoError(t, err)
	assert.Equal(t, Venue{Name: "SoFi Stadium", Thumb: "https://img/sofi.jpg", Image: "https://img/sofi-big.jpg"}, v)

	_, err = s.Venue(ctx, "SOFI")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.venues.Load(), "venue keys are normalized")

	_, err = s.Venue(ctx, "Rose Bowl")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ===== ESPN =====

func TestParseEventTime(t *testing.T) {
	got, err := ParseEventTime("2024-03-10T02:30Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC), got.UTC())

	got, err = ParseEventTime("2024-03-10T02:30:15-07:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 30, 15, 0, time.UTC), got.UTC())

	_, err = ParseEventTime("next tuesday")
	assert.Error(t, err)
}

type espnFake struct {
	srv       *httptest.Server
	lists     atomic.Int32
	teamCalls atomic.Int32
	lastDates atomic.Value
}

func newESPNFake(t *testing.T, dates ...string) *espnFake {
	f := &espnFake{}
	mux := http.NewServeMux()
	mux.HandleFunc("/soccer/leagues/usa.1/teams/187/events", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		f.lastDates.Store(r.URL.Query().Get("dates"))
		base := "http://" + r.Host
		var items []map[string]string
		for i := range dates {
			items = append(items, map[string]string{"$ref": fmt.Sprintf("%s/events/%d", base, i)})
		}
		items = append(items, map[string]string{"$ref": base + "/events/broken"})
		writeJSON(w, map[string]any{"items": items})
	})
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		var i int
		if _, err := fmt.Sscanf(r.URL.Path, "/events/%d", &i); err != nil || i >= len(dates) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		base := "http://" + r.Host
		writeJSON(w, map[string]any{
			"id":   fmt.Sprint(i),
			"date": dates[i],
			"name": fmt.Sprintf("Game %d", i),
			"competitions": []map[string]any{{
				"competitors": []map[string]any{
					{"homeAway": "home", "team": map[string]string{"$ref": base + "/teams/galaxy"}},
					{"homeAway": "away", "team": map[string]string{"$ref": base + "/teams/abbr-only"}},
				},
				"venue": map[string]string{"fullName": "Dignity Health Sports Park"},
			}},
		})
	})
	mux.HandleFunc("/teams/galaxy", func(w http.ResponseWriter, r *http.Request) {
		f.teamCalls.Add(1)
		writeJSON(w, map[string]string{"displayName": "LA Galaxy", "abbreviation": "LA"})
	})
	mux.HandleFunc("/teams/abbr-only", func(w http.ResponseWriter, r *http.Request) {
		f.teamCalls.Add(1)
		writeJSON(w, map[string]string{"abbreviation": "SEA"})
	})
	mux.HandleFunc("/teams/empty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func TestESPN_NextGamePicksClosestUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	f := newESPNFake(t,
		"2024-03-20T02:30Z", // later
		"2024-03-08T02:30Z", // already played
		"2024-03-10T02:30Z", // next
	)
	c := newCache()
	e := NewESPN(NewHTTPClient(time.Second, quiet()), c, f.srv.URL, quiet(), WithESPNClock(func() time.Time { return now }))
	galaxy, _ := LookupTeam("galaxy")

	ev, err := e.NextGame(context.Background(), galaxy)
	require.NoError(t, err)
	assert.Equal(t, "2", ev.ID)
	assert.Equal(t, "Dignity Health Sports Park", ev.Venue())
	assert.Equal(t, "20240309-20240323", f.lastDates.Load())

	_, err = e.NextGame(context.Background(), galaxy)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.lists.Load(), "event list cached under game_data")

	_, ok := c.Get(keys.GameData("galaxy", "soccer", "20240309", "20240323"))
	assert.True(t, ok)
}

func TestESPN_NoUpcomingGames(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	f := newESPNFake(t, "2024-03-01T02:30Z")
	e := NewESPN(NewHTTPClient(time.Second, quiet()), newCache(), f.srv.URL, quiet(), WithESPNClock(func() time.Time { return now }))
	galaxy, _ := LookupTeam("galaxy")

	_, err := e.NextGame(context.Background(), galaxy)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestESPN_TeamNameFallbacks(t *testing.T) {
	f := newESPNFake(t)
	c := newCache()
	e := NewESPN(NewHTTPClient(time.Second, quiet()), c, f.srv.URL, quiet())
	ctx := context.Background()

	name, err := e.TeamName(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, UnknownTeam, name)

	name, err = e.TeamName(ctx, f.srv.URL+"/teams/galaxy")
	require.NoError(t, err)
	assert.Equal(t, "LA Galaxy", name)

	name, err = e.TeamName(ctx, f.srv.URL+"/teams/abbr-only")
	require.NoError(t, err)
	assert.Equal(t, "SEA", name)

	name, err = e.TeamName(ctx, f.srv.URL+"/teams/empty")
	require.NoError(t, err)
	assert.Equal(t, UnknownTeam, name)

	name, err = e.TeamName(ctx, f.srv.URL+"/teams/nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, UnknownTeam, name)

	_, err = e.TeamName(ctx, f.srv.URL+"/teams/galaxy")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.teamCalls.Load(), "names cached by ref")

	info := c.Info()
	assert.Equal(t, "team_names", info[keys.TeamName(f.srv.URL+"/teams/galaxy")].Category)
}

func TestESPN_Matchup(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	f := newESPNFake(t, "2024-03-10T02:30Z")
	e := NewESPN(NewHTTPClient(time.Second, quiet()), newCache(), f.srv.URL, quiet(), WithESPNClock(func() time.Time { return now }))
	galaxy, _ := LookupTeam("galaxy")

	ev, err := e.NextGame(context.Background(), galaxy)
	require.NoError(t, err)
	assert.Equal(t, "SEA @ LA Galaxy", e.Matchup(context.Background(), *ev))
	assert.Equal(t, "bare", e.Matchup(context.Background(), Event{Name: "bare"}))
}

// ===== TEAMS =====

func TestTeams(t *testing.T) {
	assert.Equal(t, []string{"dodgers", "galaxy", "kings", "lakers", "rams"}, TeamKeys())

	lakers, ok := LookupTeam(" LAKERS ")
	require.True(t, ok)
	assert.Equal(t, 60*24*time.Hour, lakers.Window)
	assert.Equal(t, "13", lakers.ESPNID)

	_, ok = LookupTeam("clippers")
	assert.False(t, ok)
}
