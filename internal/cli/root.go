package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goobie-bot/goobie/admin"
	"github.com/goobie-bot/goobie/config"
)

// NewRootCmd creates the root cobra command writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	var flags GlobalFlags

	cmd := &cobra.Command{
		Use:           "goobie",
		Short:         "LA sports bot backend",
		Long:          "goobie serves team logos, venues and schedules for the LA teams from a shared in-memory cache.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			app := NewApp(cfg, flags, out, errOut)
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd.Context())
			if app == nil || !flags.Stats || cmd.Name() == "serve" {
				return nil
			}
			_, err := fmt.Fprint(errOut, "\n"+admin.StatsReport(app.Cache.Stats(), nil).Text())
			return err
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.JSON, "json", "j", false, "Output as JSON")
	cmd.PersistentFlags().BoolVar(&flags.Stats, "stats", false, "Print cache statistics after the command")

	cmd.AddCommand(
		newServeCmd(),
		newTeamsCmd(),
		newTeamCmd(),
		newLogosCmd(),
		newVenueCmd(),
		newNextGameCmd(),
		newDemoCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
