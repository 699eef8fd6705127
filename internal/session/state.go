// Package session holds the client side of a roulette session: the screen
// state, the watched history sent with every pick and the preferences kept
// between runs.
package session

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/samber/lo"
)

// Phase is the coarse screen a session is on.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseShowSelected
	PhaseEpisodeLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSearching:
		return "searching"
	case PhaseShowSelected:
		return "show-selected"
	case PhaseEpisodeLoaded:
		return "episode-loaded"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// State is an immutable snapshot of a session. Every transition returns a new
// State and leaves the receiver untouched.
type State struct {
	Phase       Phase
	Query       string
	SearchSeq   int
	Suggestions []service.ShowSummary
	Show        *service.ShowSummary
	Range       picker.SeasonRange
	History     picker.History
	Episodes    []service.EpisodeResponse
	Index       int
	Err         error

	customRange bool
}

// Reset returns the idle state.
func (s State) Reset() State {
	return State{}
}

// BeginSearch records a new query tagged with seq. A blank query clears the
// suggestions and returns to idle.
func (s State) BeginSearch(query string, seq int) State {
	next := State{Query: query, SearchSeq: seq}
	if strings.TrimSpace(query) == "" {
		return next
	}
	next.Phase = PhaseSearching
	next.Suggestions = s.Suggestions
	return next
}

// ReceiveSuggestions stores search results. Results for anything other than
// the latest query are dropped.
func (s State) ReceiveSuggestions(seq int, shows []service.ShowSummary) State {
	if seq != s.SearchSeq || s.Phase != PhaseSearching {
		return s
	}
	s.Suggestions = slices.Clone(shows)
	return s
}

// SelectShow starts a fresh session for show. The season range is the stored
// one when given, otherwise every season.
func (s State) SelectShow(show service.ShowSummary, stored *picker.SeasonRange) State {
	next := State{
		Phase:     PhaseShowSelected,
		Query:     show.Title,
		SearchSeq: s.SearchSeq,
		Show:      &show,
		Range:     picker.SeasonRange{Min: 1, Max: max(1, show.TotalSeasons)},
	}
	if stored != nil {
		next.Range = *stored
		next.customRange = true
	}
	return next
}

// LoadEpisode shows resp, appends it to the navigation list and records it in
// the history.
func (s State) LoadEpisode(resp service.EpisodeResponse) State {
	show := resp.Show
	if total := resp.Episode.TotalSeasons; total > 0 {
		show.TotalSeasons = total
	}
	s.Show = &show
	if !s.customRange {
		s.Range = picker.SeasonRange{Min: 1, Max: max(1, show.TotalSeasons)}
	}

	s.Phase = PhaseEpisodeLoaded
	s.Err = nil
	s.Episodes = append(slices.Clip(s.Episodes), resp)
	s.Index = len(s.Episodes) - 1
	s.History = RecordHistory(s.History, picker.Entry{Season: resp.Episode.Season, Episode: resp.Episode.Episode})
	return s
}

// Fail moves to the error phase.
func (s State) Fail(err error) State {
	s.Phase = PhaseError
	s.Err = err
	return s
}

// Current returns the episode on screen.
func (s State) Current() (service.EpisodeResponse, bool) {
	if s.Phase != PhaseEpisodeLoaded || s.Index < 0 || s.Index >= len(s.Episodes) {
		return service.EpisodeResponse{}, false
	}
	return s.Episodes[s.Index], true
}

func (s State) HasPrevious() bool {
	return s.Phase == PhaseEpisodeLoaded && s.Index > 0
}

func (s State) HasNext() bool {
	return s.Phase == PhaseEpisodeLoaded && s.Index < len(s.Episodes)-1
}

// Previous moves back through the episodes suggested so far.
func (s State) Previous() State {
	if s.HasPrevious() {
		s.Index--
	}
	return s
}

// Next moves forward through the episodes suggested so far.
func (s State) Next() State {
	if s.HasNext() {
		s.Index++
	}
	return s
}

// TotalSeasons is the selected show's season count, at least 1.
func (s State) TotalSeasons() int {
	if s.Show == nil {
		return 1
	}
	return max(1, s.Show.TotalSeasons)
}

// SetSeasonMin sets the lower bound, raising the upper bound if needed.
func (s State) SetSeasonMin(n int) State {
	if s.Show == nil {
		return s
	}
	n = min(max(1, n), s.TotalSeasons())
	s.Range.Min = n
	s.Range.Max = max(s.Range.Max, n)
	s.customRange = true
	return s
}

// SetSeasonMax sets the upper bound, lowering the lower bound if needed.
func (s State) SetSeasonMax(n int) State {
	if s.Show == nil {
		return s
	}
	n = min(max(1, n), s.TotalSeasons())
	s.Range.Max = n
	s.Range.Min = min(s.Range.Min, n)
	s.customRange = true
	return s
}

// RandomRequest builds the pick request for the selected show. The upper
// bound is left out while the season count is still unknown.
func (s State) RandomRequest() picker.Request {
	if s.Show == nil {
		return picker.Request{}
	}
	req := picker.Request{
		ShowID:    s.Show.ID,
		SeasonMin: strconv.Itoa(s.Range.Min),
		History:   EncodeHistory(s.History),
	}
	if s.customRange || s.Show.TotalSeasons > 0 {
		req.SeasonMax = strconv.Itoa(s.Range.Max)
	}
	return req
}

// RecordHistory adds entry to h. Recording an episode that is already present
// forgets the rest of its season first.
func RecordHistory(h picker.History, entry picker.Entry) picker.History {
	if lo.Contains(h, entry) {
		h = lo.Reject(h, func(e picker.Entry, _ int) bool {
			return e.Season == entry.Season
		})
	}
	return append(slices.Clip(h), entry)
}

// EncodeHistory renders h in the [[season, episode], ...] form the server
// parses.
func EncodeHistory(h picker.History) string {
	pairs := lo.Map(h, func(e picker.Entry, _ int) [2]int {
		return [2]int{e.Season, e.Episode}
	})
	data, err := json.Marshal(pairs)
	if err != nil {
		return "[]"
	}
	return string(data)
}
