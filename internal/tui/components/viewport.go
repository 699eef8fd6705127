package components

import (
	"github.com/Digital-Shane/episode-roulette/internal/tui/theme"

	"github.com/charmbracelet/bubbles/viewport"
)

// NewViewport returns a scrollable panel for the episode details.
func NewViewport(width, height int, th theme.Theme) *viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = th.DetailsStyle()
	return &vp
}
