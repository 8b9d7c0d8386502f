package sports

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	cache "github.com/goobie-bot/goobie"
	"github.com/goobie-bot/goobie/api"
	"github.com/goobie-bot/goobie/expiration"
	"github.com/goobie-bot/goobie/keys"
	"github.com/goobie-bot/goobie/types"
)

const (
	DefaultSportsDBBaseURL = "https://www.thesportsdb.com/api/v1/json"
	DefaultSportsDBAPIKey  = "123"

	venueThumbURL = "https://www.thesportsdb.com/images/media/venue/thumb/%s.jpg"
)

// Team is the subset of a TheSportsDB team record the bot uses.
type Team struct {
	ID           string `json:"idTeam"`
	Name         string `json:"strTeam"`
	Sport        string `json:"strSport"`
	League       string `json:"strLeague"`
	Stadium      string `json:"strStadium"`
	StadiumThumb string `json:"strStadiumThumb"`
	VenueID      string `json:"idVenue"`
	Badge        string `json:"strBadge"`
	Logo         string `json:"strLogo"`
	Banner       string `json:"strBanner"`
	Equipment    string `json:"strEquipment"`
}

// Logos are the image URLs shown alongside a team.
type Logos struct {
	Logo              string `json:"logo"`
	LogoSmall         string `json:"logo_small"`
	Jersey            string `json:"jersey"`
	Stadium           string `json:"stadium"`
	StadiumThumb      string `json:"stadium_thumb"`
	StadiumThumbSmall string `json:"stadium_thumb_small"`
}

type Venue struct {
	Name  string `json:"venue_name"`
	Thumb string `json:"venue_thumb"`
	Image string `json:"venue_image"`
}

type teamsResponse struct {
	Teams []Team `json:"teams"`
}

type venuesResponse struct {
	Venues []struct {
		Name  string `json:"strVenue"`
		Thumb string `json:"strVenueThumb"`
		Image string `json:"strVenueImage"`
	} `json:"venues"`
}

// ExtractLogos builds Logos from a team record. Badge falls back to logo then banner;
// a missing stadium thumbnail is derived from the venue id.
func ExtractLogos(t Team) Logos {
	logo := t.Badge
	if logo == "" {
		logo = t.Logo
	}
	if logo == "" {
		logo = t.Banner
	}

	thumb := t.StadiumThumb
	if thumb == "" && t.VenueID != "" {
		thumb = fmt.Sprintf(venueThumbURL, t.VenueID)
	}

	l := Logos{
		Logo:         logo,
		Jersey:       t.Equipment,
		Stadium:      t.Stadium,
		StadiumThumb: thumb,
	}
	if logo != "" {
		l.LogoSmall = logo + "/small"
	}
	if thumb != "" {
		l.StadiumThumbSmall = thumb + "/small"
	}
	return l
}

// SportsDBConfig points the client at an API root.
type SportsDBConfig struct {
	BaseURL string
	APIKey  string
}

// SportsDB answers team and venue lookups through the cache.
type SportsDB struct {
	http    *HTTPClient
	baseURL string
	log     *slog.Logger

	teamMetadata    types.FetchFunc[TeamInfo, *Team]
	teamLogos       types.FetchFunc[string, Logos]
	teamLogosByName types.FetchFunc[string, Logos]
	venue           types.FetchFunc[string, Venue]
}

func NewSportsDB(client *HTTPClient, c api.Cache, cfg SportsDBConfig, logger *slog.Logger) *SportsDB {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSportsDBBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultSportsDBAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SportsDB{
		http:    client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIKey,
		log:     logger.With("upstream", "sportsdb"),
	}

	opts := []cache.WrapOption{cache.WithWrapLogger(s.log), cache.WithSingleFlight()}
	s.teamMetadata = cache.Wrap(c, expiration.TeamMetadata,
		func(t TeamInfo) string { return keys.TeamMetadata(t.Key) },
		s.fetchTeamMetadata, opts...)
	s.teamLogos = cache.Wrap(c, expiration.TeamLogos, keys.TeamLogos, s.fetchTeamLogos, opts...)
	s.teamLogosByName = cache.Wrap(c, expiration.TeamLogos, keys.TeamLogosByName, s.fetchTeamLogosByName, opts...)
	s.venue = cache.Wrap(c, expiration.VenueData, keys.VenueData, s.fetchVenue, opts...)
	return s
}

// TeamMetadata returns the full team record for a followed team.
func (s *SportsDB) TeamMetadata(ctx context.Context, t TeamInfo) (*Team, error) {
	return s.teamMetadata(ctx, t)
}

// TeamLogos returns logos for a TheSportsDB team id.
func (s *SportsDB) TeamLogos(ctx context.Context, teamID string) (Logos, error) {
	return s.teamLogos(ctx, teamID)
}

// TeamLogosByName searches teams by name and returns the first whose name contains it.
func (s *SportsDB) TeamLogosByName(ctx context.Context, name string) (Logos, error) {
	return s.teamLogosByName(ctx, name)
}

// Venue searches venues by name and returns the first whose name contains it.
func (s *SportsDB) Venue(ctx context.Context, name string) (Venue, error) {
	return s.venue(ctx, name)
}

// ImageExists reports whether an image URL is reachable.
func (s *SportsDB) ImageExists(ctx context.Context, rawURL string) bool {
	return s.http.Exists(ctx, rawURL)
}

func (s *SportsDB) lookupTeam(ctx context.Context, id string) (*Team, error) {
	var resp teamsResponse
	if err := s.http.GetJSON(ctx, s.baseURL+"/lookupteam.php", url.Values{"id": {id}}, &resp); err != nil {
		return nil, fmt.Errorf("looking up team %s: %w", id, err)
	}
	if len(resp.Teams) == 0 {
		return nil, fmt.Errorf("looking up team %s: %w", id, ErrNotFound)
	}
	t := resp.Teams[0]
	s.log.Info("team found", "team", t.Name, "id", t.ID)
	return &t, nil
}

func (s *SportsDB) fetchTeamMetadata(ctx context.Context, t TeamInfo) (*Team, error) {
	return s.lookupTeam(ctx, t.SportsDBID)
}

func (s *SportsDB) fetchTeamLogos(ctx context.Context, id string) (Logos, error) {
	t, err := s.lookupTeam(ctx, id)
	if err != nil {
		return Logos{}, err
	}
	return ExtractLogos(*t), nil
}

func (s *SportsDB) fetchTeamLogosByName(ctx context.Context, name string) (Logos, error) {
	var resp teamsResponse
	if err := s.http.GetJSON(ctx, s.baseURL+"/searchteams.php", url.Values{"t": {name}}, &resp); err != nil {
		return Logos{}, fmt.Errorf("searching team %q: %w", name, err)
	}
	want := strings.ToLower(name)
	for _, t := range resp.Teams {
		if strings.Contains(strings.ToLower(t.Name), want) {
			return ExtractLogos(t), nil
		}
	}
	return Logos{}, fmt.Errorf("searching team %q: %w", name, ErrNotFound)
}

func (s *SportsDB) fetchVenue(ctx context.Context, name string) (Venue, error) {
	var resp venuesResponse
	if err := s.http.GetJSON(ctx, s.baseURL+"/searchvenues.php", url.Values{"t": {name}}, &resp); err != nil {
		return Venue{}, fmt.Errorf("searching venue %q: %w", name, err)
	}
	want := strings.ToLower(name)
	for _, v := range resp.Venues {
		if strings.Contains(strings.ToLower(v.Name), want) {
			return Venue{Name: v.Name, Thumb: v.Thumb, Image: v.Image}, nil
		}
	}
	return Venue{}, fmt.Errorf("searching venue %q: %w", name, ErrNotFound)
}
