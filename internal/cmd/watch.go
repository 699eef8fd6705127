package cmd

import (
	"fmt"

	"github.com/Digital-Shane/episode-roulette/internal/client"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/Digital-Shane/episode-roulette/internal/session"
	"github.com/Digital-Shane/episode-roulette/internal/tui/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		serverURL string
		local     bool
		showID    string
		season    int
		episode   int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Browse random episodes in the terminal",
		Long: `Open the interactive picker. By default it talks to an episode-roulette
server; --local runs the configured provider in-process instead.
Favourites, season ranges and spoiler mode are kept in client.state_dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (season > 0) != (episode > 0) {
				return fmt.Errorf("--season and --episode must be given together")
			}
			if season > 0 && showID == "" {
				return fmt.Errorf("--season and --episode need --show")
			}

			var catalog service.Catalog
			if local {
				var err error
				if catalog, err = a.newCatalog(a); err != nil {
					return err
				}
			} else {
				if serverURL == "" {
					serverURL = a.cfg.Client.ServerURL
				}
				c, err := client.New(serverURL, nil)
				if err != nil {
					return err
				}
				catalog = c
			}

			prefs := session.NewPreferences(session.NewFileStore(a.fs, a.cfg.Client.StateDir))
			opts := []watch.Option{watch.WithDebounce(a.cfg.Client.SearchDebounce)}
			if showID != "" {
				opts = append(opts, watch.WithLink(showID, season, episode))
			}
			return a.runTUI(cmd.Context(), catalog, prefs, opts...)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL (default client.server_url)")
	cmd.Flags().BoolVar(&local, "local", false, "Use the configured provider directly instead of a server")
	cmd.Flags().StringVar(&showID, "show", "", "Open this show")
	cmd.Flags().IntVar(&season, "season", 0, "Open this season's episode (needs --show and --episode)")
	cmd.Flags().IntVar(&episode, "episode", 0, "Open this episode (needs --show and --season)")
	return cmd
}
