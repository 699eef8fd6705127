package watch

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/Digital-Shane/episode-roulette/internal/session"
	"github.com/Digital-Shane/episode-roulette/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
)

const (
	searchHelp  = "type to search • ↑/↓ move • enter pick • 1-9 favourite • esc reset • ctrl+c quit"
	episodeHelp = "n another • [ ] first season • { } last season • ←/→ history • f favourite • s spoilers • esc search • ctrl+c quit"
)

func (m *Model) View() string {
	header := m.theme.HeaderStyle().
		Width(m.width).
		Render(m.theme.Icon("dice") + " Episode Roulette")

	search := m.theme.Icon("search") + " " + m.input.View()

	help := searchHelp
	if !m.input.Focused() {
		help = episodeHelp
	}
	if m.status != "" {
		help = m.status
	}
	status := m.theme.StatusBarStyle().
		Width(m.width).
		Render(components.Truncate(help, m.width-2))

	body := lipgloss.NewStyle().
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Render(m.body())

	return lipgloss.JoinVertical(lipgloss.Left, header, search, "", body, status)
}

func (m *Model) body() string {
	if m.loading && m.state.Phase != session.PhaseEpisodeLoaded {
		return m.theme.Icon("loading") + " Picking an episode…"
	}

	switch m.state.Phase {
	case session.PhaseError:
		return m.theme.ErrorBadge().Render("Error") + " " +
			components.Truncate(m.state.Err.Error(), m.width-8)
	case session.PhaseEpisodeLoaded:
		body := m.details.View()
		if m.loading {
			body = m.theme.Icon("loading") + " Picking another episode…\n" + body
		}
		return body
	case session.PhaseSearching:
		return m.suggestionsView()
	case session.PhaseShowSelected:
		return m.theme.Icon("loading") + " Picking an episode…"
	default:
		return m.favouritesView()
	}
}

func (m *Model) suggestionsView() string {
	suggestions := m.state.Suggestions
	if suggestions == nil {
		return m.theme.MutedStyle().Render("Searching…")
	}
	if len(suggestions) == 0 {
		return m.theme.MutedStyle().Render("No shows found")
	}

	var b strings.Builder
	for i, show := range suggestions {
		line := fmt.Sprintf("%s (%s)", show.Title, formatRun(show.YearStart, show.YearEnd))
		line = components.Truncate(line, m.width-4)
		if i == m.cursor {
			b.WriteString(m.theme.SelectedStyle().Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *Model) favouritesView() string {
	favs := m.prefs.Favourites()
	if len(favs) == 0 {
		return m.theme.MutedStyle().Render("No favourites yet. Press f on a show to add one.")
	}

	var b strings.Builder
	b.WriteString(m.theme.PanelTitleStyle().Render(m.theme.Icon("favourite") + " Favourites"))
	b.WriteByte('\n')
	for i, fav := range favs {
		if i < 9 {
			fmt.Fprintf(&b, "%d. %s\n", i+1, components.Truncate(fav.Title, m.width-4))
		} else {
			fmt.Fprintf(&b, "   %s\n", components.Truncate(fav.Title, m.width-4))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// refreshDetails re-renders the episode panel into the details viewport.
func (m *Model) refreshDetails() {
	resp, ok := m.state.Current()
	if !ok {
		m.details.SetContent("")
		return
	}
	m.details.SetContent(m.episodeView(resp))
}

func (m *Model) episodeView(resp service.EpisodeResponse) string {
	ep := resp.Episode
	show := resp.Show
	width := max(10, m.width-2)

	lines := []string{
		m.theme.SelectedStyle().Render(fmt.Sprintf("%s Season %d, Episode %d", m.theme.Icon("episode"), ep.Season, ep.Episode)),
	}

	if m.spoiler {
		lines = append(lines, m.theme.MutedStyle().Render(m.theme.Icon("spoiler")+" Title hidden"))
	} else {
		title := "Untitled"
		if ep.Title != nil {
			title = *ep.Title
		}
		if ep.Year != nil {
			title = fmt.Sprintf("%s (%s)", title, *ep.Year)
		}
		lines = append(lines, components.Truncate(title, width))
	}

	showLine := fmt.Sprintf("%s %s (%s)", m.theme.Icon("tv"), show.Title, formatRun(show.YearStart, ep.ShowYearEnd))
	if m.prefs.IsFavourite(show.ID) {
		showLine += " " + m.theme.Icon("favourite")
	}
	lines = append(lines, components.Truncate(showLine, width))

	if ep.Rating != nil {
		lines = append(lines, fmt.Sprintf("%s %s/10", m.theme.Icon("rating"), *ep.Rating))
	}

	lines = append(lines, "")
	switch {
	case m.spoiler:
		lines = append(lines, m.theme.MutedStyle().Render("Plot hidden"))
	case ep.Plot != nil:
		lines = append(lines, components.Wrap(*ep.Plot, width)...)
	default:
		lines = append(lines, m.theme.MutedStyle().Render("No plot available"))
	}

	r := m.state.Range
	lines = append(lines, "",
		fmt.Sprintf("%s Seasons %d-%d of %d", m.theme.Icon("season"), r.Min, r.Max, m.state.TotalSeasons()),
		fmt.Sprintf("Suggestion %d of %d", m.state.Index+1, len(m.state.Episodes)),
	)

	return strings.Join(lines, "\n")
}

func formatRun(yearStart string, yearEnd *string) string {
	end := "Present"
	if yearEnd != nil {
		end = *yearEnd
	}
	if yearStart == "" {
		return end
	}
	return yearStart + " - " + end
}
