package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRun(show service.ShowSummary) string {
	if show.Ongoing() {
		return show.YearStart + " - Present"
	}
	return fmt.Sprintf("%s - %s", show.YearStart, *show.YearEnd)
}

func printShow(w io.Writer, show service.ShowSummary) {
	fmt.Fprintf(w, "%-12s %s (%s)", show.ID, show.Title, formatRun(show))
	if show.TotalSeasons > 0 {
		fmt.Fprintf(w, ", %d seasons", show.TotalSeasons)
	}
	fmt.Fprintln(w)
}

func printEpisode(w io.Writer, resp *service.EpisodeResponse) {
	ep := resp.Episode
	fmt.Fprintf(w, "%s (%s)\n", resp.Show.Title, formatRun(resp.Show))

	title := "Untitled"
	if ep.Title != nil {
		title = *ep.Title
	}
	if ep.Year != nil {
		title = fmt.Sprintf("%s (%s)", title, *ep.Year)
	}
	fmt.Fprintf(w, "S%02dE%02d  %s\n", ep.Season, ep.Episode, title)

	if ep.Rating != nil {
		fmt.Fprintf(w, "Rating: %s/10\n", *ep.Rating)
	}
	if ep.Plot != nil {
		fmt.Fprintf(w, "\n%s\n", *ep.Plot)
	}
	fmt.Fprintf(w, "\nOpen in the terminal UI: episode-roulette watch --show %s --season %d --episode %d\n",
		resp.Show.ID, ep.Season, ep.Episode)
}

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search shows by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.newCatalog(a)
			if err != nil {
				return err
			}
			shows, err := catalog.SearchShows(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, shows)
			}
			if len(shows) == 0 {
				fmt.Fprintln(out, "No shows found")
				return nil
			}
			for _, show := range shows {
				printShow(out, show)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a summary of one show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.newCatalog(a)
			if err != nil {
				return err
			}
			show, err := catalog.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), show)
			}
			printShow(cmd.OutOrStdout(), *show)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response")
	return cmd
}

func newPickCmd(a *app) *cobra.Command {
	var (
		seasonMin string
		seasonMax string
		history   string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "pick <id>",
		Short: "Pick a random episode",
		Long: `Pick a random episode of a show, optionally limited to a season range.
--history takes the episodes already offered as a JSON list of
[season, episode] pairs; unseen episodes are preferred.`,
		Example: `  episode-roulette pick tt0303461
  episode-roulette pick tt0303461 --min 2 --max 3 --history '[[2,1],[2,4]]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.newCatalog(a)
			if err != nil {
				return err
			}
			resp, err := catalog.RandomEpisode(cmd.Context(), picker.Request{
				ShowID:    args[0],
				SeasonMin: seasonMin,
				SeasonMax: seasonMax,
				History:   history,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printEpisode(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&seasonMin, "min", "", "First season to pick from")
	cmd.Flags().StringVar(&seasonMax, "max", "", "Last season to pick from")
	cmd.Flags().StringVar(&history, "history", "", "Episodes already offered, as JSON [[season, episode], ...]")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response")
	return cmd
}

func newEpisodeCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "episode <id> <season> <episode>",
		Short: "Look up one episode",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := strconv.Atoi(args[1])
			if err != nil || season < 1 {
				return fmt.Errorf("invalid season %q", args[1])
			}
			episode, err := strconv.Atoi(args[2])
			if err != nil || episode < 1 {
				return fmt.Errorf("invalid episode %q", args[2])
			}

			catalog, err := a.newCatalog(a)
			if err != nil {
				return err
			}
			resp, err := catalog.Episode(cmd.Context(), args[0], season, episode)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printEpisode(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response")
	return cmd
}
