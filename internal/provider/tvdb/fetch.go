package tvdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	tvdbapi "github.com/dashotv/tvdb"
	"github.com/dashotv/tvdb/openapi/models/operations"
	"github.com/dashotv/tvdb/openapi/models/shared"
)

// maxEpisodePages bounds the paginated episode listing used to count seasons.
const maxEpisodePages = 20

func (p *Provider) ready(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("provider not configured")
	}
	return ctx.Err()
}

// SearchShows returns the series records matching query.
func (p *Provider) SearchShows(ctx context.Context, query string) ([]provider.Show, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &provider.ProviderError{Provider: providerName, Code: provider.CodeInvalidRequest, Message: "search requires a query", Retry: false}
	}

	typeSeries := "series"
	req := operations.GetSearchResultsRequest{Query: &query, Type: &typeSeries}

	resp, err := provider.Call(ctx, p.caller, "search", func(context.Context) (*tvdbapi.GetSearchResultsResponse, error) {
		res, err := p.client.GetSearchResults(req)
		return res, p.mapError(err)
	})
	if err != nil {
		if provider.IsNotFound(err) {
			return []provider.Show{}, nil
		}
		return nil, err
	}

	shows := []provider.Show{}
	if resp == nil {
		return shows, nil
	}

	for _, candidate := range resp.Data {
		if t := pointerToString(candidate.Type); t != "" && !strings.EqualFold(t, "series") {
			continue
		}
		record := toSearchRecord(candidate)
		if record.ID == 0 {
			continue
		}
		shows = append(shows, provider.Show{
			ID:        strconv.FormatInt(record.ID, 10),
			Title:     record.Name,
			YearStart: record.Year,
		})
	}

	return shows, nil
}

// ShowDetails fetches the series record and counts episodes per official
// season from the episode listing.
func (p *Provider) ShowDetails(ctx context.Context, id string) (*provider.Show, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	seriesID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ext, err := provider.Call(ctx, p.caller, "show", func(context.Context) (*tvdbapi.GetSeriesExtendedResponse, error) {
		short := true
		res, err := p.client.GetSeriesExtended(float64(seriesID), nil, &short)
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if ext == nil || ext.Data == nil {
		return nil, provider.NotFound(providerName, "series %s not found", id)
	}

	series := ext.Data
	show := &provider.Show{
		ID:        strconv.FormatInt(seriesID, 10),
		Title:     pointerToString(series.Name),
		YearStart: pointerToString(series.Year),
	}
	if series.Score != nil {
		show.Popularity = *series.Score
	}

	counts, err := p.seasonCounts(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(counts))
	for number := range counts {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	for _, number := range numbers {
		show.Seasons = append(show.Seasons, provider.Season{Number: number, EpisodeCount: counts[number]})
		if number > show.TotalSeasons {
			show.TotalSeasons = number
		}
	}

	return show, nil
}

// seasonCounts walks the official episode listing and counts episodes per
// season, skipping specials.
func (p *Provider) seasonCounts(ctx context.Context, seriesID int64) (map[int]int, error) {
	counts := make(map[int]int)

	req := operations.GetSeriesEpisodesRequest{
		ID:         float64(seriesID),
		SeasonType: "official",
		Page:       0,
	}

	for i := 0; i < maxEpisodePages; i++ {
		page, err := provider.Call(ctx, p.caller, "episodes", func(context.Context) (*tvdbapi.GetSeriesEpisodesResponse, error) {
			res, err := p.client.GetSeriesEpisodes(req)
			return res, p.mapError(err)
		})
		if err != nil {
			if provider.IsNotFound(err) && i > 0 {
				break
			}
			return nil, err
		}
		if page == nil || page.Data == nil || len(page.Data.Episodes) == 0 {
			break
		}

		for _, episode := range page.Data.Episodes {
			season := int(pointerToInt64(episode.SeasonNumber))
			if season <= 0 {
				continue
			}
			counts[season]++
		}
		req.Page++
	}

	return counts, nil
}

// SeasonDetails counts the episodes of one official season.
func (p *Provider) SeasonDetails(ctx context.Context, id string, season int) (*provider.Season, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}
	if season <= 0 {
		return nil, &provider.ProviderError{Provider: providerName, Code: provider.CodeInvalidRequest, Message: "season fetch requires a valid season number", Retry: false}
	}

	seriesID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	seasonNum := int64(season)
	episodes, err := provider.Call(ctx, p.caller, "season", func(context.Context) (*tvdbapi.GetSeriesEpisodesResponse, error) {
		res, err := p.client.GetSeriesEpisodes(operations.GetSeriesEpisodesRequest{
			ID:         float64(seriesID),
			SeasonType: "official",
			Season:     &seasonNum,
			Page:       0,
		})
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if episodes == nil || episodes.Data == nil || len(episodes.Data.Episodes) == 0 {
		return nil, provider.NotFound(providerName, "season %d of %s not found", season, id)
	}

	return &provider.Season{Number: season, EpisodeCount: len(episodes.Data.Episodes)}, nil
}

// EpisodeDetails fetches a single official episode.
func (p *Provider) EpisodeDetails(ctx context.Context, id string, season, episode int) (*provider.Episode, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	seriesID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	seasonNum := int64(season)
	episodeNum := int64(episode)
	episodes, err := provider.Call(ctx, p.caller, "episode", func(context.Context) (*tvdbapi.GetSeriesEpisodesResponse, error) {
		res, err := p.client.GetSeriesEpisodes(operations.GetSeriesEpisodesRequest{
			ID:            float64(seriesID),
			SeasonType:    "official",
			Season:        &seasonNum,
			EpisodeNumber: &episodeNum,
			Page:          0,
		})
		return res, p.mapError(err)
	})
	if err != nil {
		return nil, err
	}
	if episodes == nil || episodes.Data == nil {
		return nil, provider.NotFound(providerName, "episode S%02dE%02d of %s not found", season, episode, id)
	}

	var record *shared.EpisodeBaseRecord
	for i := range episodes.Data.Episodes {
		e := episodes.Data.Episodes[i]
		if e.Number != nil && int(*e.Number) == episode {
			record = &e
			break
		}
	}
	if record == nil {
		return nil, provider.NotFound(providerName, "episode S%02dE%02d of %s not found", season, episode, id)
	}

	return &provider.Episode{
		Season:    season,
		Episode:   episode,
		Title:     pointerToString(record.Name),
		Plot:      pointerToString(record.Overview),
		PosterURL: pointerToString(record.Image),
		Year:      pointerToString(record.Year),
	}, nil
}

type searchRecord struct {
	ID   int64
	Name string
	Year string
}

func toSearchRecord(result shared.SearchResult) *searchRecord {
	id := parseInt64(pointerToString(result.TvdbID))
	if id == 0 {
		id = parseInt64(strings.TrimPrefix(pointerToString(result.ID), "series-"))
	}

	name := firstNonEmptyString(pointerToString(result.Name), pointerToString(result.NameTranslated), pointerToString(result.Title))
	year := pointerToString(result.Year)

	return &searchRecord{ID: id, Name: name, Year: year}
}

func parseID(id string) (int64, error) {
	seriesID := parseInt64(id)
	if seriesID <= 0 {
		return 0, provider.NotFound(providerName, "invalid TVDB series id %q", id)
	}
	return seriesID, nil
}
