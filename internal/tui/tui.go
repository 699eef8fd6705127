// Package tui runs the terminal front end.
package tui

import (
	"context"
	"errors"

	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/Digital-Shane/episode-roulette/internal/session"
	"github.com/Digital-Shane/episode-roulette/internal/tui/watch"
	tea "github.com/charmbracelet/bubbletea"
)

// WatchModel is the interactive picker screen.
type WatchModel = watch.Model

// NewWatchModel constructs the picker screen.
func NewWatchModel(catalog service.Catalog, prefs *session.Preferences, opts ...watch.Option) *watch.Model {
	return watch.New(catalog, prefs, opts...)
}

// Run shows the picker screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, catalog service.Catalog, prefs *session.Preferences, opts ...watch.Option) error {
	opts = append([]watch.Option{watch.WithContext(ctx)}, opts...)
	model := NewWatchModel(catalog, prefs, opts...)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
