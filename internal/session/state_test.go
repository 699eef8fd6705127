package session

import (
	"errors"
	"testing"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/google/go-cmp/cmp"
)

func episode(season, number, total int) service.EpisodeResponse {
	return service.EpisodeResponse{
		Episode: service.EpisodeDTO{Season: season, Episode: number, TotalSeasons: total},
		Show:    service.ShowSummary{ID: "tt1", Title: "Firefly"},
	}
}

func TestRecordHistory(t *testing.T) {
	tests := []struct {
		name    string
		history picker.History
		entry   picker.Entry
		want    picker.History
	}{
		{
			name:  "empty",
			entry: picker.Entry{Season: 1, Episode: 3},
			want:  picker.History{{Season: 1, Episode: 3}},
		},
		{
			name:    "new episode appends",
			history: picker.History{{Season: 1, Episode: 3}, {Season: 2, Episode: 1}},
			entry:   picker.Entry{Season: 1, Episode: 4},
			want:    picker.History{{Season: 1, Episode: 3}, {Season: 2, Episode: 1}, {Season: 1, Episode: 4}},
		},
		{
			name:    "repeat clears its season",
			history: picker.History{{Season: 1, Episode: 3}, {Season: 2, Episode: 1}, {Season: 1, Episode: 4}},
			entry:   picker.Entry{Season: 1, Episode: 3},
			want:    picker.History{{Season: 2, Episode: 1}, {Season: 1, Episode: 3}},
		},
		{
			name:    "same episode number in another season is new",
			history: picker.History{{Season: 2, Episode: 3}},
			entry:   picker.Entry{Season: 1, Episode: 3},
			want:    picker.History{{Season: 2, Episode: 3}, {Season: 1, Episode: 3}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RecordHistory(tc.history, tc.entry)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("RecordHistory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordHistoryDoesNotAlias(t *testing.T) {
	base := make(picker.History, 1, 4)
	base[0] = picker.Entry{Season: 1, Episode: 1}

	a := RecordHistory(base, picker.Entry{Season: 1, Episode: 2})
	b := RecordHistory(base, picker.Entry{Season: 1, Episode: 5})
	if a[1].Episode != 2 || b[1].Episode != 5 {
		t.Errorf("histories share storage: %v %v", a, b)
	}
}

func TestEncodeHistory(t *testing.T) {
	h := picker.History{{Season: 1, Episode: 2}, {Season: 3, Episode: 4}}
	got := EncodeHistory(h)
	if got != "[[1,2],[3,4]]" {
		t.Errorf("EncodeHistory() = %s", got)
	}
	if diff := cmp.Diff(h, picker.ParseHistory(got)); diff != "" {
		t.Errorf("server parse mismatch (-want +got):\n%s", diff)
	}
	if EncodeHistory(nil) != "[]" {
		t.Errorf("EncodeHistory(nil) = %s", EncodeHistory(nil))
	}
}

func TestSearchTransitions(t *testing.T) {
	var s State
	s = s.BeginSearch("fire", 1)
	if s.Phase != PhaseSearching {
		t.Fatalf("phase = %v, want searching", s.Phase)
	}

	s = s.BeginSearch("firef", 2)
	stale := s.ReceiveSuggestions(1, []service.ShowSummary{{ID: "old"}})
	if len(stale.Suggestions) != 0 {
		t.Errorf("stale results applied: %v", stale.Suggestions)
	}

	s = s.ReceiveSuggestions(2, []service.ShowSummary{{ID: "tt1", Title: "Firefly"}})
	if len(s.Suggestions) != 1 || s.Suggestions[0].ID != "tt1" {
		t.Errorf("suggestions = %v", s.Suggestions)
	}

	cleared := s.BeginSearch("  ", 3)
	if cleared.Phase != PhaseIdle || cleared.Suggestions != nil {
		t.Errorf("blank query should clear suggestions, got %v %v", cleared.Phase, cleared.Suggestions)
	}
}

func TestSelectShow(t *testing.T) {
	show := service.ShowSummary{ID: "tt1", Title: "Firefly", TotalSeasons: 4}
	base := State{History: picker.History{{Season: 1, Episode: 1}}, Episodes: []service.EpisodeResponse{episode(1, 1, 4)}}

	s := base.SelectShow(show, nil)
	if s.Phase != PhaseShowSelected || s.History != nil || s.Episodes != nil {
		t.Errorf("SelectShow() did not start fresh: %+v", s)
	}
	if s.Range != (picker.SeasonRange{Min: 1, Max: 4}) {
		t.Errorf("range = %+v, want full range", s.Range)
	}
	if len(base.History) != 1 {
		t.Error("SelectShow() modified the receiver")
	}

	stored := picker.SeasonRange{Min: 2, Max: 3}
	s = base.SelectShow(show, &stored)
	if s.Range != stored {
		t.Errorf("range = %+v, want stored %+v", s.Range, stored)
	}
}

func TestLoadEpisodeAndNavigate(t *testing.T) {
	s := State{}.SelectShow(service.ShowSummary{ID: "tt1", Title: "Firefly"}, nil)
	if req := s.RandomRequest(); req.SeasonMax != "" || req.SeasonMin != "1" {
		t.Errorf("unknown season count should omit seasonMax: %+v", req)
	}

	s = s.LoadEpisode(episode(1, 3, 2))
	s = s.LoadEpisode(episode(2, 1, 2))
	s = s.LoadEpisode(episode(1, 3, 2))

	if s.Phase != PhaseEpisodeLoaded || s.Index != 2 || len(s.Episodes) != 3 {
		t.Fatalf("state = %+v", s)
	}
	if s.Range != (picker.SeasonRange{Min: 1, Max: 2}) {
		t.Errorf("range = %+v, want season count from episode", s.Range)
	}
	if diff := cmp.Diff(picker.History{{Season: 2, Episode: 1}, {Season: 1, Episode: 3}}, s.History); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	req := s.RandomRequest()
	if diff := cmp.Diff(picker.Request{ShowID: "tt1", SeasonMin: "1", SeasonMax: "2", History: "[[2,1],[1,3]]"}, req); diff != "" {
		t.Errorf("RandomRequest() mismatch (-want +got):\n%s", diff)
	}

	if s.HasNext() {
		t.Error("HasNext() at the newest episode")
	}
	prev := s.Previous().Previous()
	if cur, _ := prev.Current(); cur.Episode.Season != 1 || cur.Episode.Episode != 3 || prev.Index != 0 {
		t.Errorf("Previous() landed on %+v", cur.Episode)
	}
	if prev.Previous().Index != 0 {
		t.Error("Previous() should stop at the first episode")
	}
	if len(prev.History) != 2 {
		t.Error("navigation should not touch history")
	}
	if cur, _ := prev.Next().Current(); cur.Episode.Season != 2 {
		t.Errorf("Next() landed on %+v", cur.Episode)
	}
}

func TestSeasonBounds(t *testing.T) {
	s := State{}.SelectShow(service.ShowSummary{ID: "tt1", TotalSeasons: 5}, nil)

	tests := []struct {
		name string
		step func(State) State
		want picker.SeasonRange
	}{
		{"raise min", func(s State) State { return s.SetSeasonMin(3) }, picker.SeasonRange{Min: 3, Max: 5}},
		{"min above total", func(s State) State { return s.SetSeasonMin(9) }, picker.SeasonRange{Min: 5, Max: 5}},
		{"min below one", func(s State) State { return s.SetSeasonMin(-2) }, picker.SeasonRange{Min: 1, Max: 5}},
		{"lower max", func(s State) State { return s.SetSeasonMax(2) }, picker.SeasonRange{Min: 1, Max: 2}},
		{"max pushes min", func(s State) State { return s.SetSeasonMin(4).SetSeasonMax(2) }, picker.SeasonRange{Min: 2, Max: 2}},
		{"min pushes max", func(s State) State { return s.SetSeasonMax(2).SetSeasonMin(4) }, picker.SeasonRange{Min: 4, Max: 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.step(s).Range; got != tc.want {
				t.Errorf("range = %+v, want %+v", got, tc.want)
			}
		})
	}

	if got := (State{}).SetSeasonMin(3); got.Range != (picker.SeasonRange{}) {
		t.Error("bounds should not change without a show")
	}
}

func TestFailAndReset(t *testing.T) {
	boom := errors.New("boom")
	s := State{}.SelectShow(service.ShowSummary{ID: "tt1"}, nil).Fail(boom)
	if s.Phase != PhaseError || !errors.Is(s.Err, boom) {
		t.Errorf("Fail() = %+v", s)
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() in error phase")
	}
	if r := s.Reset(); r.Phase != PhaseIdle || r.Show != nil || r.Err != nil {
		t.Errorf("Reset() = %+v", r)
	}
}
