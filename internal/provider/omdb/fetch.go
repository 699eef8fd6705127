package omdb

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/Digital-Shane/omdb"
)

// notAvailable is OMDb's placeholder for absent fields.
const notAvailable = "N/A"

type responder interface {
	status() (bool, string)
}

type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e *envelope) status() (bool, string) {
	return strings.EqualFold(e.Response, "True"), e.Error
}

type searchResponse struct {
	envelope
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		ImdbID string `json:"imdbID"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
	} `json:"Search"`
}

type seriesResponse struct {
	envelope
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Poster       string `json:"Poster"`
	ImdbID       string `json:"imdbID"`
	TotalSeasons string `json:"totalSeasons"`
}

type episodeResponse struct {
	envelope
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	Season     string `json:"Season"`
	Episode    string `json:"Episode"`
}

// SearchShows lists series matching the query. OMDb reports "no matches" as a
// failed response, which is returned as an empty list.
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

	resp, err := provider.Call(ctx, p.caller, "search", func(ctx context.Context) (*searchResponse, error) {
		var out searchResponse
		err := p.query(ctx, map[string]string{"s": query, "type": "series"}, &out)
		return &out, err
	})
	if err != nil {
		mapped := p.mapError(err)
		var rejected *rejectedError
		if errors.As(err, &rejected) && (isCode(mapped, provider.CodeUnknown) || isCode(mapped, provider.CodeNotFound)) {
			return []provider.Show{}, nil
		}
		return nil, mapped
	}

	shows := make([]provider.Show, 0, len(resp.Search))
	for _, result := range resp.Search {
		if result.Type != "" && result.Type != "series" {
			continue
		}
		start, end := splitYears(result.Year)
		shows = append(shows, provider.Show{
			ID:        result.ImdbID,
			Title:     result.Title,
			PosterURL: available(result.Poster),
			YearStart: start,
			YearEnd:   end,
		})
	}
	return shows, nil
}

// ShowDetails fetches a series by IMDb id.
func (p *Provider) ShowDetails(ctx context.Context, id string) (*provider.Show, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, provider.NotFound(providerName, "show id is empty")
	}

	resp, err := provider.Call(ctx, p.caller, "show", func(ctx context.Context) (*seriesResponse, error) {
		var out seriesResponse
		err := p.query(ctx, map[string]string{"i": id, "type": "series"}, &out)
		return &out, err
	})
	if err != nil {
		return nil, p.lookupError(err, id)
	}

	start, end := splitYears(resp.Year)
	totalSeasons, _ := strconv.Atoi(strings.TrimSpace(resp.TotalSeasons))

	return &provider.Show{
		ID:           firstNonEmpty(resp.ImdbID, id),
		Title:        resp.Title,
		PosterURL:    available(resp.Poster),
		YearStart:    start,
		YearEnd:      end,
		TotalSeasons: totalSeasons,
	}, nil
}

// SeasonDetails counts the episodes OMDb lists for a season.
func (p *Provider) SeasonDetails(ctx context.Context, id string, season int) (*provider.Season, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	if season <= 0 {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "season fetch requires a valid season number",
		}
	}

	result, err := provider.Call(ctx, p.caller, "season", func(context.Context) (any, error) {
		listing, err := p.client.SearchByImdbID(omdb.QueryData{
			ImdbID: strings.TrimSpace(id),
			Season: strconv.Itoa(season),
		})
		return listing, p.mapError(err)
	})
	if err != nil {
		return nil, p.lookupError(err, id)
	}

	switch listing := result.(type) {
	case omdb.SeasonResult:
		return &provider.Season{Number: season, EpisodeCount: len(listing.Episodes)}, nil
	case *omdb.SeasonResult:
		return &provider.Season{Number: season, EpisodeCount: len(listing.Episodes)}, nil
	default:
		return nil, provider.NotFound(providerName, "season %d of %s not found", season, id)
	}
}

// EpisodeDetails fetches a single episode with its full plot.
func (p *Provider) EpisodeDetails(ctx context.Context, id string, season, episode int) (*provider.Episode, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	if season <= 0 || episode <= 0 {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeInvalidRequest,
			Message:  "episode fetch requires valid season and episode numbers",
		}
	}

	resp, err := provider.Call(ctx, p.caller, "episode", func(ctx context.Context) (*episodeResponse, error) {
		var out episodeResponse
		err := p.query(ctx, map[string]string{
			"i":       strings.TrimSpace(id),
			"Season":  strconv.Itoa(season),
			"Episode": strconv.Itoa(episode),
			"plot":    "full",
		}, &out)
		return &out, err
	})
	if err != nil {
		return nil, p.lookupError(err, id)
	}

	year := omdb.FirstYear(available(resp.Year))
	if year == "" {
		year = omdb.FirstYear(available(resp.Released))
	}

	return &provider.Episode{
		Season:    season,
		Episode:   episode,
		Title:     available(resp.Title),
		Plot:      available(resp.Plot),
		PosterURL: available(resp.Poster),
		Rating:    rating(resp.ImdbRating),
		Year:      year,
	}, nil
}

// lookupError maps lookup failures. OMDb rejects unknown ids with a variety
// of messages, so any rejection that is not an auth or rate limit problem
// means the id is unknown.
func (p *Provider) lookupError(err error, id string) error {
	mapped := p.mapError(err)

	var rejected *rejectedError
	if errors.As(err, &rejected) && isCode(mapped, provider.CodeUnknown) {
		return provider.NotFound(providerName, "%s: %s", id, rejected.message)
	}
	return mapped
}

func isCode(err error, code string) bool {
	var perr *provider.ProviderError
	return errors.As(err, &perr) && perr.Code == code
}

// splitYears separates an OMDb year range such as "2011–2019" or "2015–".
func splitYears(value string) (string, string) {
	value = strings.TrimSpace(available(value))
	if value == "" {
		return "", ""
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '–' || r == '-'
	})
	if len(parts) == 0 {
		return "", ""
	}

	start := omdb.FirstYear(parts[0])
	if start == "" {
		start = strings.TrimSpace(parts[0])
	}
	if len(parts) < 2 {
		return start, ""
	}
	return start, strings.TrimSpace(parts[1])
}

func available(value string) string {
	value = strings.TrimSpace(value)
	if value == notAvailable {
		return ""
	}
	return value
}

func rating(value string) string {
	value = available(value)
	if value == "" || omdb.ParseRating(value) == 0 {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
