package service

import (
	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/provider"
)

// ShowSummary is the wire shape of a show.
type ShowSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	PosterURL    *string `json:"posterUrl"`
	YearStart    string  `json:"yearStart"`
	YearEnd      *string `json:"yearEnd"`
	Popularity   float64 `json:"popularity"`
	TotalSeasons int     `json:"totalSeasons,omitempty"`
}

// Ongoing reports whether the show has no recorded end year.
func (s ShowSummary) Ongoing() bool {
	return s.YearEnd == nil
}

// EpisodeDTO is the wire shape of an episode.
type EpisodeDTO struct {
	Season       int     `json:"season"`
	Episode      int     `json:"episode"`
	Title        *string `json:"title"`
	Plot         *string `json:"plot"`
	PosterURL    *string `json:"posterUrl"`
	Rating       *string `json:"rating"`
	Year         *string `json:"year"`
	TotalSeasons int     `json:"totalSeasons"`
	ShowYearEnd  *string `json:"showYearEnd"`
	Attempts     int     `json:"attempts,omitempty"`
}

// EpisodeResponse wraps an episode together with its show.
type EpisodeResponse struct {
	Episode EpisodeDTO  `json:"episode"`
	Show    ShowSummary `json:"show"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func totalSeasons(show *provider.Show) int {
	if show.TotalSeasons < 1 {
		return 1
	}
	return show.TotalSeasons
}

// NewShowSummary converts a provider show into its wire shape.
func NewShowSummary(show provider.Show) ShowSummary {
	return ShowSummary{
		ID:           show.ID,
		Title:        show.Title,
		PosterURL:    optional(show.PosterURL),
		YearStart:    show.YearStart,
		YearEnd:      optional(show.YearEnd),
		Popularity:   show.Popularity,
		TotalSeasons: show.TotalSeasons,
	}
}

// NewEpisodeResponse builds the envelope for an episode of show. attempts is
// zero for direct lookups.
func NewEpisodeResponse(show *provider.Show, episode *provider.Episode, attempts int) *EpisodeResponse {
	return &EpisodeResponse{
		Episode: EpisodeDTO{
			Season:       episode.Season,
			Episode:      episode.Episode,
			Title:        optional(episode.Title),
			Plot:         optional(episode.Plot),
			PosterURL:    optional(episode.PosterURL),
			Rating:       optional(episode.Rating),
			Year:         optional(episode.Year),
			TotalSeasons: totalSeasons(show),
			ShowYearEnd:  optional(show.YearEnd),
			Attempts:     attempts,
		},
		Show: NewShowSummary(*show),
	}
}

func fromSelection(sel *picker.Selection) *EpisodeResponse {
	return NewEpisodeResponse(sel.Show, sel.Episode, sel.Attempts)
}
