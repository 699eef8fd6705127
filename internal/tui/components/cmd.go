package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DebounceMsg emits msg after the delay. Callers tag msg with a sequence
// number and drop it on arrival if a newer one has been issued since.
func DebounceMsg(delay time.Duration, msg tea.Msg) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return msg })
}
