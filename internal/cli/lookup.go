package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goobie-bot/goobie/sports"
)

func teamArg(arg string) (sports.TeamInfo, error) {
	t, ok := sports.LookupTeam(arg)
	if !ok {
		return sports.TeamInfo{}, fmt.Errorf("unknown team %q (want one of %s)", arg, strings.Join(sports.TeamKeys(), ", "))
	}
	return t, nil
}

func newTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List followed teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			teams := sports.Teams()
			var b strings.Builder
			for _, t := range teams {
				fmt.Fprintf(&b, "%-8s %s (%s/%s)\n", t.Key, t.Name, t.Sport, t.League)
			}
			return app.print(teams, strings.TrimRight(b.String(), "\n"))
		},
	}
}

func newTeamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team <team>",
		Short: "Show TheSportsDB metadata for a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			t, err := teamArg(args[0])
			if err != nil {
				return err
			}
			team, err := app.SportsDB.TeamMetadata(cmd.Context(), t)
			if err != nil {
				return err
			}
			return app.print(team, fmt.Sprintf("%s\nSport:   %s\nLeague:  %s\nStadium: %s", team.Name, team.Sport, team.League, team.Stadium))
		},
	}
}

func newLogosCmd() *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "logos <team>",
		Short: "Show logo and stadium image URLs for a team",
		Long:  "Looks a followed team up by TheSportsDB id, or searches any team by name with --name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			var (
				logos sports.Logos
				err   error
			)
			if byName {
				logos, err = app.SportsDB.TeamLogosByName(cmd.Context(), args[0])
			} else {
				t, terr := teamArg(args[0])
				if terr != nil {
					return terr
				}
				logos, err = app.SportsDB.TeamLogos(cmd.Context(), t.SportsDBID)
			}
			if err != nil {
				return err
			}
			return app.print(logos, fmt.Sprintf("Logo:    %s\nJersey:  %s\nStadium: %s\nThumb:   %s",
				logos.Logo, logos.Jersey, logos.Stadium, logos.StadiumThumb))
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "Search by team name instead of a followed team")
	return cmd
}

func newVenueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "venue <name>",
		Short: "Search for a venue by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			v, err := app.SportsDB.Venue(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return app.print(v, fmt.Sprintf("%s\nThumb: %s\nImage: %s", v.Name, v.Thumb, v.Image))
		},
	}
}

type nextGameView struct {
	Team    string    `json:"team"`
	Event   string    `json:"event"`
	Matchup string    `json:"matchup"`
	Start   time.Time `json:"start"`
	Venue   string    `json:"venue,omitempty"`
}

func newNextGameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nextgame <team>",
		Short: "Show a team's next scheduled game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			t, err := teamArg(args[0])
			if err != nil {
				return err
			}
			ev, err := app.ESPN.NextGame(cmd.Context(), t)
			if err != nil {
				return err
			}
			view := nextGameView{
				Team:    t.Name,
				Event:   ev.ID,
				Matchup: app.ESPN.Matchup(cmd.Context(), *ev),
				Start:   ev.Time(),
				Venue:   ev.Venue(),
			}
			text := fmt.Sprintf("%s\n%s", view.Matchup, view.Start.Local().Format("Mon Jan 2, 3:04 PM MST"))
			if view.Venue != "" {
				text += "\n" + view.Venue
			}
			return app.print(view, text)
		},
	}
}
