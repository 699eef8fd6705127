// Package watch is the interactive episode picker screen.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/Digital-Shane/episode-roulette/internal/session"
	"github.com/Digital-Shane/episode-roulette/internal/tui/components"
	"github.com/Digital-Shane/episode-roulette/internal/tui/theme"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDebounce is the pause after the last keystroke before searching.
const DefaultDebounce = 500 * time.Millisecond

type searchMsg struct {
	seq   int
	query string
}

type suggestionsMsg struct {
	seq   int
	shows []service.ShowSummary
	err   error
}

type showMsg struct {
	show *service.ShowSummary
	err  error
}

type episodeMsg struct {
	resp *service.EpisodeResponse
	err  error
}

type linkMsg struct {
	resp *service.EpisodeResponse
	err  error
}

type link struct {
	showID  string
	season  int
	episode int
}

// Model drives the search, pick and browse screen.
type Model struct {
	ctx      context.Context
	catalog  service.Catalog
	prefs    *session.Preferences
	theme    theme.Theme
	debounce time.Duration
	link     link

	state   session.State
	input   textinput.Model
	details *viewport.Model
	cursor  int
	seq     int
	spoiler bool
	loading bool
	status  string

	width  int
	height int
}

// Option configures a Model during construction.
type Option func(*Model)

func WithTheme(th theme.Theme) Option {
	return func(m *Model) {
		m.theme = th
	}
}

// WithDebounce sets the search debounce. Zero searches on every keystroke.
func WithDebounce(d time.Duration) Option {
	return func(m *Model) {
		m.debounce = d
	}
}

// WithContext bounds every catalog call.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithLink opens the screen on a specific show, or a specific episode when
// season and episode are positive.
func WithLink(showID string, season, episode int) Option {
	return func(m *Model) {
		m.link = link{showID: showID, season: season, episode: episode}
	}
}

// New creates the watch screen over catalog, persisting choices in prefs.
func New(catalog service.Catalog, prefs *session.Preferences, opts ...Option) *Model {
	m := &Model{
		ctx:      context.Background(),
		catalog:  catalog,
		prefs:    prefs,
		debounce: DefaultDebounce,
		width:    80,
		height:   24,
	}

	initOpts := append([]Option{WithTheme(theme.Default())}, opts...)
	for _, opt := range initOpts {
		opt(m)
	}

	m.spoiler = prefs.SpoilerAvoidance()
	m.input = newSearchInput(m.theme)
	m.details = components.NewViewport(m.width, m.bodyHeight(), m.theme)

	if m.link.showID != "" {
		m.loading = true
	} else {
		m.input.Focus()
	}
	return m
}

func newSearchInput(th theme.Theme) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Search for a show"
	ti.CharLimit = 256
	ti.Cursor.Style = th.CursorStyle()
	ti.TextStyle = th.SelectedStyle().UnsetBold()
	ti.Width = 48
	return ti
}

// State returns the current session snapshot.
func (m *Model) State() session.State {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	if m.link.showID == "" {
		return textinput.Blink
	}
	if m.link.season > 0 && m.link.episode > 0 {
		return m.linkCmd(m.link)
	}
	return m.showCmd(m.link.showID)
}

func (m *Model) searchCmd(seq int, query string) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		shows, err := catalog.SearchShows(ctx, query)
		return suggestionsMsg{seq: seq, shows: shows, err: err}
	}
}

func (m *Model) showCmd(id string) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		show, err := catalog.Show(ctx, id)
		return showMsg{show: show, err: err}
	}
}

func (m *Model) pickCmd(req picker.Request) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		resp, err := catalog.RandomEpisode(ctx, req)
		return episodeMsg{resp: resp, err: err}
	}
}

func (m *Model) linkCmd(l link) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		resp, err := catalog.Episode(ctx, l.showID, l.season, l.episode)
		return linkMsg{resp: resp, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.width-12)
		m.details.Width = m.width
		m.details.Height = m.bodyHeight()
		m.refreshDetails()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.searchCmd(msg.seq, msg.query)

	case suggestionsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.state = m.state.Fail(msg.err)
			return m, nil
		}
		m.state = m.state.ReceiveSuggestions(msg.seq, msg.shows)
		m.cursor = 0
		return m, nil

	case showMsg:
		if msg.err != nil {
			m.loading = false
			m.state = m.state.Fail(msg.err)
			return m, nil
		}
		m.state = m.state.SelectShow(*msg.show, m.storedRange(msg.show.ID))
		m.input.SetValue(msg.show.Title)
		m.input.Blur()
		return m, m.pickCmd(m.state.RandomRequest())

	case episodeMsg:
		m.loading = false
		if msg.err != nil {
			m.state = m.state.Fail(msg.err)
			return m, nil
		}
		m.state = m.state.LoadEpisode(*msg.resp)
		m.refreshDetails()
		return m, nil

	case linkMsg:
		m.loading = false
		if msg.err != nil {
			m.state = m.state.Fail(msg.err)
			return m, nil
		}
		show := msg.resp.Show
		show.TotalSeasons = msg.resp.Episode.TotalSeasons
		m.state = m.state.SelectShow(show, m.storedRange(show.ID)).LoadEpisode(*msg.resp)
		m.input.SetValue(show.Title)
		m.input.Blur()
		m.refreshDetails()
		return m, nil
	}

	return m, nil
}

func (m *Model) storedRange(id string) *picker.SeasonRange {
	r, ok := m.prefs.SeasonRange(id)
	if !ok {
		return nil
	}
	return &r
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m, m.reset()
	}

	if m.input.Focused() {
		return m.handleSearchKey(msg)
	}
	return m.handleEpisodeKey(msg)
}

func (m *Model) reset() tea.Cmd {
	m.state = m.state.Reset()
	m.seq++
	m.cursor = 0
	m.loading = false
	m.status = ""
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	suggestions := m.state.Suggestions

	switch key {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(suggestions)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.state.Phase != session.PhaseSearching || len(suggestions) == 0 || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.showCmd(suggestions[m.cursor].ID)
	}

	if m.input.Value() == "" && len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		favs := m.prefs.Favourites()
		idx := int(key[0] - '1')
		if idx < len(favs) && !m.loading {
			m.loading = true
			return m, m.showCmd(favs[idx].ID)
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	query := m.input.Value()
	if query == before {
		return m, cmd
	}

	m.seq++
	m.cursor = 0
	m.state = m.state.BeginSearch(query, m.seq)
	if m.state.Phase != session.PhaseSearching {
		return m, cmd
	}
	return m, tea.Batch(cmd, components.DebounceMsg(m.debounce, searchMsg{seq: m.seq, query: query}))
}

func (m *Model) handleEpisodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Show == nil {
		return m, nil
	}
	r := m.state.Range

	switch msg.String() {
	case "n":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, m.pickCmd(m.state.RandomRequest())
	case "[":
		m.adjustRange(m.state.SetSeasonMin(r.Min - 1))
	case "]":
		m.adjustRange(m.state.SetSeasonMin(r.Min + 1))
	case "{":
		m.adjustRange(m.state.SetSeasonMax(r.Max - 1))
	case "}":
		m.adjustRange(m.state.SetSeasonMax(r.Max + 1))
	case "left":
		m.state = m.state.Previous()
		m.refreshDetails()
	case "right":
		m.state = m.state.Next()
		m.refreshDetails()
	case "f":
		m.toggleFavourite()
	case "s":
		m.spoiler = !m.spoiler
		if err := m.prefs.SetSpoilerAvoidance(m.spoiler); err != nil {
			m.status = fmt.Sprintf("Could not save spoiler mode: %v", err)
		}
		m.refreshDetails()
	case "up":
		m.details.ScrollUp(1)
	case "down":
		m.details.ScrollDown(1)
	case "pgup":
		m.details.HalfPageUp()
	case "pgdown":
		m.details.HalfPageDown()
	}
	return m, nil
}

func (m *Model) adjustRange(next session.State) {
	if next.Range == m.state.Range {
		return
	}
	m.state = next
	if err := m.prefs.SetSeasonRange(next.Show.ID, next.Range, next.TotalSeasons()); err != nil {
		m.status = fmt.Sprintf("Could not save season range: %v", err)
	}
	m.refreshDetails()
}

func (m *Model) toggleFavourite() {
	show := m.state.Show
	on, err := m.prefs.ToggleFavourite(session.Favourite{ID: show.ID, Title: show.Title})
	switch {
	case err != nil:
		m.status = fmt.Sprintf("Could not save favourites: %v", err)
	case on:
		m.status = fmt.Sprintf("Added %s to favourites", show.Title)
	default:
		m.status = fmt.Sprintf("Removed %s from favourites", show.Title)
	}
	m.refreshDetails()
}

// bodyHeight is the space left under the header, search line and status bar.
func (m *Model) bodyHeight() int {
	return max(3, m.height-5)
}
