package tmdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/ryanbradynd05/go-tmdb"
	"github.com/samber/lo"
)

// easterEggQuery and easterEggShowID implement the optional "peep" search
// promotion.
const (
	easterEggQuery  = "peep"
	easterEggShowID = "815"
)

func (p *Provider) options() map[string]string {
	return map[string]string{"language": p.language}
}

func (p *Provider) ready(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("provider not configured")
	}
	return ctx.Err()
}

// SearchShows searches TMDB for series, drops entries without a poster or a
// first air date and orders the rest by popularity.
func (p *Provider) SearchShows(ctx context.Context, query string) ([]provider.Show, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "search requires a query",
		}
	}

	results, err := provider.Call(ctx, p.caller, "search", func(context.Context) (*tmdb.TvSearchResults, error) {
		res, err := p.client.SearchTv(query, p.options())
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}

	shows := []provider.Show{}
	if results == nil {
		return shows, nil
	}

	for _, result := range results.Results {
		show := provider.Show{
			ID:         strconv.Itoa(result.ID),
			Title:      result.Name,
			PosterURL:  p.imageURL(result.PosterPath),
			YearStart:  year(result.FirstAirDate),
			Popularity: float64(result.Popularity),
		}
		if p.requirePoster && (show.PosterURL == "" || show.YearStart == "") {
			continue
		}
		shows = append(shows, show)
	}

	sort.SliceStable(shows, func(i, j int) bool {
		return shows[i].Popularity > shows[j].Popularity
	})

	if p.promoteEgg && strings.ToLower(query) == easterEggQuery {
		shows = promote(shows, easterEggShowID)
	}

	return shows, nil
}

// promote moves the show with the given id to the front of the list.
func promote(shows []provider.Show, id string) []provider.Show {
	_, index, found := lo.FindIndexOf(shows, func(s provider.Show) bool {
		return s.ID == id
	})
	if !found || index == 0 {
		return shows
	}

	promoted := make([]provider.Show, 0, len(shows))
	promoted = append(promoted, shows[index])
	promoted = append(promoted, shows[:index]...)
	return append(promoted, shows[index+1:]...)
}

// ShowDetails fetches a series with its season list.
func (p *Provider) ShowDetails(ctx context.Context, id string) (*provider.Show, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	showID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	tv, err := provider.Call(ctx, p.caller, "show", func(context.Context) (*tmdb.TV, error) {
		res, err := p.client.GetTvInfo(showID, p.options())
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if tv == nil {
		return nil, provider.NotFound(providerName, "show %s not found", id)
	}

	return p.tvToShow(tv), nil
}

func (p *Provider) tvToShow(tv *tmdb.TV) *provider.Show {
	show := &provider.Show{
		ID:           strconv.Itoa(tv.ID),
		Title:        tv.Name,
		PosterURL:    p.imageURL(tv.PosterPath),
		YearStart:    year(tv.FirstAirDate),
		Popularity:   float64(tv.Popularity),
		TotalSeasons: tv.NumberOfSeasons,
	}

	if ended(tv.Status) {
		show.YearEnd = year(tv.LastAirDate)
	}

	for _, season := range tv.Seasons {
		show.Seasons = append(show.Seasons, provider.Season{
			Number:       season.SeasonNumber,
			EpisodeCount: season.EpisodeCount,
		})
	}

	return show
}

// SeasonDetails counts the episodes of one season.
func (p *Provider) SeasonDetails(ctx context.Context, id string, season int) (*provider.Season, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	showID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	info, err := provider.Call(ctx, p.caller, "season", func(context.Context) (*tmdb.TvSeason, error) {
		res, err := p.client.GetTvSeasonInfo(showID, season, p.options())
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, provider.NotFound(providerName, "season %d of %s not found", season, id)
	}

	return &provider.Season{Number: season, EpisodeCount: len(info.Episodes)}, nil
}

// EpisodeDetails fetches a single episode.
func (p *Provider) EpisodeDetails(ctx context.Context, id string, season, episode int) (*provider.Episode, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	showID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ep, err := provider.Call(ctx, p.caller, "episode", func(context.Context) (*tmdb.TvEpisode, error) {
		res, err := p.client.GetTvEpisodeInfo(showID, season, episode, p.options())
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, provider.NotFound(providerName, "episode S%02dE%02d of %s not found", season, episode, id)
	}

	result := &provider.Episode{
		Season:    season,
		Episode:   episode,
		Title:     strings.TrimSpace(ep.Name),
		Plot:      strings.TrimSpace(ep.Overview),
		PosterURL: p.imageURL(ep.StillPath),
		Year:      year(ep.AirDate),
	}
	if ep.VoteAverage > 0 {
		result.Rating = strconv.FormatFloat(float64(ep.VoteAverage), 'f', 1, 32)
	}

	return result, nil
}

func parseID(id string) (int, error) {
	showID, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || showID <= 0 {
		return 0, provider.NotFound(providerName, "invalid TMDB show id %q", id)
	}
	return showID, nil
}

func year(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

func ended(status string) bool {
	switch strings.ToLower(status) {
	case "ended", "canceled", "cancelled":
		return true
	}
	return false
}
