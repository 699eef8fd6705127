// Package service joins a metadata provider with the episode picker and
// produces the shapes served over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidRequest marks caller mistakes such as a blank query.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound marks unknown shows or episodes.
	ErrNotFound = errors.New("not found")
)

// IsNotFound reports whether err means the show or episode does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || provider.IsNotFound(err)
}

// IsInvalidRequest reports whether err was caused by bad input.
func IsInvalidRequest(err error) bool {
	if errors.Is(err, ErrInvalidRequest) {
		return true
	}
	var perr *provider.ProviderError
	return errors.As(err, &perr) && perr.Code == provider.CodeInvalidRequest
}

// Catalog is what the HTTP surface, the CLI and the terminal client consume.
type Catalog interface {
	SearchShows(ctx context.Context, query string) ([]ShowSummary, error)
	Show(ctx context.Context, id string) (*ShowSummary, error)
	RandomEpisode(ctx context.Context, req picker.Request) (*EpisodeResponse, error)
	Episode(ctx context.Context, id string, season, episode int) (*EpisodeResponse, error)
}

// Service implements Catalog in-process.
type Service struct {
	provider provider.Provider
	picker   *picker.Picker
	logger   logrus.FieldLogger
}

// New creates a Service over p. A nil picker gets the defaults.
func New(p provider.Provider, pk *picker.Picker, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if pk == nil {
		pk = picker.New(p, picker.WithLogger(logger))
	}
	return &Service{provider: p, picker: pk, logger: logger}
}

// SearchShows returns shows matching query. No matches is an empty list.
func (s *Service) SearchShows(ctx context.Context, query string) ([]ShowSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: missing search query", ErrInvalidRequest)
	}

	shows, err := s.provider.SearchShows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	summaries := make([]ShowSummary, 0, len(shows))
	for _, show := range shows {
		summaries = append(summaries, NewShowSummary(show))
	}
	return summaries, nil
}

// Show returns the summary of a single show.
func (s *Service) Show(ctx context.Context, id string) (*ShowSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: missing show id", ErrInvalidRequest)
	}

	show, err := s.provider.ShowDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show %s: %w", id, err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", id, ErrNotFound)
	}

	summary := NewShowSummary(*show)
	return &summary, nil
}

// RandomEpisode runs the picker for req.
func (s *Service) RandomEpisode(ctx context.Context, req picker.Request) (*EpisodeResponse, error) {
	req.ShowID = strings.TrimSpace(req.ShowID)
	if req.ShowID == "" {
		return nil, fmt.Errorf("%w: missing show id", ErrInvalidRequest)
	}

	sel, err := s.picker.Pick(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"show":     req.ShowID,
		"season":   sel.Episode.Season,
		"episode":  sel.Episode.Episode,
		"attempts": sel.Attempts,
	}).Debug("picked episode")

	return fromSelection(sel), nil
}

// Episode looks up a specific episode without random selection.
func (s *Service) Episode(ctx context.Context, id string, season, episode int) (*EpisodeResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: missing show id", ErrInvalidRequest)
	}
	if season < 1 || episode < 1 {
		return nil, fmt.Errorf("%w: season and episode must be positive", ErrInvalidRequest)
	}

	show, err := s.provider.ShowDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show %s: %w", id, err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", id, ErrNotFound)
	}

	ep, err := s.provider.EpisodeDetails(ctx, id, season, episode)
	if err != nil {
		return nil, fmt.Errorf("episode S%02dE%02d of %s: %w", season, episode, id, err)
	}
	if ep == nil {
		return nil, fmt.Errorf("episode S%02dE%02d of %s: %w", season, episode, id, ErrNotFound)
	}
	ep.Season = season
	ep.Episode = episode

	return NewEpisodeResponse(show, ep, 0), nil
}
