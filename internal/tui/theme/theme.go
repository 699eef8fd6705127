// Package theme styles the terminal UI.
package theme

import (
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// IconSet maps a semantic name ("tv", "dice", "favourite") to its glyph.
type IconSet map[string]string

// Palette is the set of colours every style is derived from.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Paper     lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
}

// Theme holds the palette and icons of the watch screen.
type Theme struct {
	palette Palette
	icons   IconSet
}

// Option configures a Theme during construction.
type Option func(*Theme)

// WithPalette replaces the default colours.
func WithPalette(p Palette) Option {
	return func(t *Theme) {
		t.palette = p
	}
}

// WithASCII forces plain ASCII icons, for terminals without emoji fonts.
func WithASCII() Option {
	return func(t *Theme) {
		t.icons = asciiIcons
	}
}

// New constructs a Theme with optional overrides applied.
func New(opts ...Option) Theme {
	t := Theme{
		palette: Palette{
			Primary:   lipgloss.Color("#6b3a5a"),
			Secondary: lipgloss.Color("#8c5a7c"),
			Accent:    lipgloss.Color("#e0a44c"),
			Paper:     lipgloss.Color("#f8f8f8"),
			Muted:     lipgloss.Color("#9ba8c0"),
			Error:     lipgloss.Color("#f04c56"),
		},
		icons: emojiIcons,
	}
	if isLimitedTerminal() {
		t.icons = asciiIcons
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Default returns the theme for the current terminal.
func Default() Theme {
	return New()
}

func (t Theme) Palette() Palette {
	return t.palette
}

// Icon returns the glyph for name, or its ASCII form when the active set
// lacks it. Unknown names render as "".
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	return asciiIcons[name]
}

func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(t.palette.Primary).
		Foreground(t.palette.Paper).
		Align(lipgloss.Center)
}

// PanelTitleStyle heads a list on the idle screen, such as the favourites.
func (t Theme) PanelTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Foreground(t.palette.Accent)
}

func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.palette.Secondary).
		Foreground(t.palette.Paper).
		Padding(0, 1)
}

// DetailsStyle frames the episode panel.
func (t Theme) DetailsStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.palette.Primary)
}

// ErrorBadge renders the label in front of error messages.
func (t Theme) ErrorBadge() lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Background(t.palette.Error).
		Foreground(t.palette.Paper)
}

// SelectedStyle highlights the focused row of a list.
func (t Theme) SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(t.palette.Primary)
}

// MutedStyle renders hints and hidden spoilers.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Italic(true).
		Foreground(t.palette.Muted)
}

// CursorStyle colours the search input cursor.
func (t Theme) CursorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.palette.Paper).Background(t.palette.Accent)
}

// isLimitedTerminal reports sessions where emoji rarely render: SSH and Windows consoles.
func isLimitedTerminal() bool {
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"tv":        "📺",
	"episode":   "🎬",
	"season":    "📁",
	"dice":      "🎲",
	"search":    "🔍",
	"favourite": "⭐",
	"spoiler":   "🙈",
	"rating":    "🏆",
	"calendar":  "📅",
	"error":     "❌",
	"loading":   "⏳",
	"arrows":    "↑↓←→",
}

var asciiIcons = IconSet{
	"tv":        "[TV]",
	"episode":   "[E]",
	"season":    "[S]",
	"dice":      "[?]",
	"search":    "[/]",
	"favourite": "[*]",
	"spoiler":   "[-]",
	"rating":    "[R]",
	"calendar":  "[C]",
	"error":     "[!]",
	"loading":   "[.]",
	"arrows":    "^v<>",
}
