package watch

import (
	"bytes"
	"testing"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

func startWatchTestModel(t *testing.T, model *Model) *teatest.TestModel {
	t.Helper()
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))
	t.Cleanup(func() {
		_ = tm.Quit()
	})
	tm.Send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return tm
}

func waitForOutput(t *testing.T, tm *teatest.TestModel, contains string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte(contains))
	}, teatest.WithDuration(3*time.Second), teatest.WithCheckInterval(25*time.Millisecond))
}

func finalWatchModel(t *testing.T, tm *teatest.TestModel) *Model {
	t.Helper()
	final := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second))
	model, ok := final.(*Model)
	if !ok {
		t.Fatalf("Final model type = %T, want *Model", final)
	}
	return model
}

func TestWatchSearchPickAndBrowse(t *testing.T) {
	prefs := newPrefs()
	cat := newFakeCatalog()
	tm := startWatchTestModel(t, New(cat, prefs, WithDebounce(20*time.Millisecond)))

	tm.Type("firef")
	waitForOutput(t, tm, "Firefly Lane (2021 - Present)")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForOutput(t, tm, "Season 1, Episode 7")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	waitForOutput(t, tm, "Season 2, Episode 1")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	waitForOutput(t, tm, "Title hidden")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := finalWatchModel(t, tm)
	state := final.State()
	if state.Phase != session.PhaseEpisodeLoaded || len(state.Episodes) != 2 {
		t.Errorf("final state = %v with %d episodes", state.Phase, len(state.Episodes))
	}
	if !prefs.SpoilerAvoidance() {
		t.Error("spoiler mode not persisted")
	}

	cat.mu.Lock()
	searches := len(cat.searches)
	cat.mu.Unlock()
	if searches == 0 || searches > 5 {
		t.Errorf("searches = %d, want debounced searches", searches)
	}
}

func TestWatchQuitKey(t *testing.T) {
	tm := startWatchTestModel(t, New(newFakeCatalog(), newPrefs()))
	waitForOutput(t, tm, "Episode Roulette")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	if final := finalWatchModel(t, tm); final.State().Phase != session.PhaseIdle {
		t.Errorf("phase = %v, want idle", final.State().Phase)
	}
}

func TestWatchOpensLink(t *testing.T) {
	tm := startWatchTestModel(t, New(newFakeCatalog(), newPrefs(), WithLink("tt1", 3, 2)))
	waitForOutput(t, tm, "Season 3, Episode 2")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}
