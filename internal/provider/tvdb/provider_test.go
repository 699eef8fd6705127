package tvdb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	tvdbapi "github.com/dashotv/tvdb"
	"github.com/dashotv/tvdb/openapi/models/operations"
	"github.com/dashotv/tvdb/openapi/models/shared"
	"github.com/google/go-cmp/cmp"
)

type fakeClient struct {
	search   func(operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error)
	series   func(float64) (*tvdbapi.GetSeriesExtendedResponse, error)
	episodes func(operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error)
}

func (f *fakeClient) GetSearchResults(req operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error) {
	return f.search(req)
}

func (f *fakeClient) GetSeriesExtended(id float64, _ *operations.GetSeriesExtendedQueryParamMeta, _ *bool) (*tvdbapi.GetSeriesExtendedResponse, error) {
	return f.series(id)
}

func (f *fakeClient) GetSeriesEpisodes(req operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error) {
	return f.episodes(req)
}

func ptr[T any](v T) *T { return &v }

func newTestProvider(t *testing.T, client *fakeClient) *Provider {
	t.Helper()
	prov := New()
	prov.client = client
	if err := prov.Configure(map[string]interface{}{
		"api_key":                        "testing",
		provider.OptionRetryDelay:        time.Millisecond,
		provider.OptionRateLimitRequests: 0,
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	prov.caller.MaxDelay = time.Millisecond
	return prov
}

func episodesFixture(t *testing.T, body string) *tvdbapi.GetSeriesEpisodesResponse {
	t.Helper()
	var resp tvdbapi.GetSeriesEpisodesResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &resp
}

func TestConfigureRequiresAPIKey(t *testing.T) {
	prov := New()
	if err := prov.Configure(map[string]interface{}{}); err == nil {
		t.Fatal("expected error when api_key is missing")
	}
	if err := prov.Configure(map[string]interface{}{"api_key": " "}); err == nil {
		t.Fatal("expected error when api_key is blank")
	}
}

func TestSearchShows(t *testing.T) {
	var sawType string
	prov := newTestProvider(t, &fakeClient{
		search: func(req operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error) {
			sawType = *req.Type
			return &tvdbapi.GetSearchResultsResponse{Data: []shared.SearchResult{
				{TvdbID: ptr("81189"), Name: ptr("Breaking Bad"), Year: ptr("2008"), Type: ptr("series")},
				{TvdbID: ptr("12345"), Name: ptr("Breaking Bad Movie"), Type: ptr("movie")},
				{ID: ptr("series-273181"), NameTranslated: ptr("Breaking Bad (ES)"), Year: ptr("2013")},
				{Name: ptr("No identifier")},
			}}, nil
		},
	})

	shows, err := prov.SearchShows(context.Background(), " breaking bad ")
	if err != nil {
		t.Fatalf("SearchShows() error = %v", err)
	}

	want := []provider.Show{
		{ID: "81189", Title: "Breaking Bad", YearStart: "2008"},
		{ID: "273181", Title: "Breaking Bad (ES)", YearStart: "2013"},
	}
	if diff := cmp.Diff(want, shows); diff != "" {
		t.Errorf("SearchShows() mismatch (-want +got):\n%s", diff)
	}
	if sawType != "series" {
		t.Errorf("search type = %q, want series", sawType)
	}
}

func TestSearchShowsNotFoundIsEmpty(t *testing.T) {
	prov := newTestProvider(t, &fakeClient{
		search: func(operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error) {
			return nil, errors.New("404 not found")
		},
	})

	shows, err := prov.SearchShows(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("SearchShows() error = %v", err)
	}
	if shows == nil || len(shows) != 0 {
		t.Errorf("SearchShows() = %#v, want empty non-nil list", shows)
	}
}

func TestShowDetailsCountsSeasons(t *testing.T) {
	var pages []int64
	prov := newTestProvider(t, &fakeClient{
		series: func(id float64) (*tvdbapi.GetSeriesExtendedResponse, error) {
			var resp tvdbapi.GetSeriesExtendedResponse
			body := `{"data":{"name":"Breaking Bad","year":"2008","score":96.5}}`
			if err := json.Unmarshal([]byte(body), &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		},
		episodes: func(req operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error) {
			pages = append(pages, int64(req.Page))
			switch req.Page {
			case 0:
				return episodesFixture(t, `{"data":{"episodes":[
					{"number":1,"seasonNumber":0,"name":"Special"},
					{"number":1,"seasonNumber":1,"name":"Pilot"},
					{"number":2,"seasonNumber":1,"name":"Cat's in the Bag..."}
				]}}`), nil
			case 1:
				return episodesFixture(t, `{"data":{"episodes":[
					{"number":1,"seasonNumber":2,"name":"Seven Thirty-Seven"}
				]}}`), nil
			default:
				return episodesFixture(t, `{"data":{"episodes":[]}}`), nil
			}
		},
	})

	show, err := prov.ShowDetails(context.Background(), "81189")
	if err != nil {
		t.Fatalf("ShowDetails() error = %v", err)
	}

	want := &provider.Show{
		ID:           "81189",
		Title:        "Breaking Bad",
		YearStart:    "2008",
		Popularity:   96.5,
		TotalSeasons: 2,
		Seasons: []provider.Season{
			{Number: 1, EpisodeCount: 2},
			{Number: 2, EpisodeCount: 1},
		},
	}
	if diff := cmp.Diff(want, show); diff != "" {
		t.Errorf("ShowDetails() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 1, 2}, pages); diff != "" {
		t.Errorf("pages requested mismatch (-want +got):\n%s", diff)
	}
}

func TestShowDetailsInvalidID(t *testing.T) {
	prov := newTestProvider(t, &fakeClient{})

	_, err := prov.ShowDetails(context.Background(), "tt0903747")
	if !provider.IsNotFound(err) {
		t.Errorf("ShowDetails(imdb id) error = %v, want not found", err)
	}
}

func TestSeasonDetails(t *testing.T) {
	prov := newTestProvider(t, &fakeClient{
		episodes: func(req operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error) {
			if req.Season == nil || *req.Season != 3 {
				return episodesFixture(t, `{"data":{"episodes":[]}}`), nil
			}
			return episodesFixture(t, `{"data":{"episodes":[{"number":1},{"number":2},{"number":3},{"number":4}]}}`), nil
		},
	})

	season, err := prov.SeasonDetails(context.Background(), "81189", 3)
	if err != nil {
		t.Fatalf("SeasonDetails() error = %v", err)
	}
	if diff := cmp.Diff(&provider.Season{Number: 3, EpisodeCount: 4}, season); diff != "" {
		t.Errorf("SeasonDetails() mismatch (-want +got):\n%s", diff)
	}

	if _, err := prov.SeasonDetails(context.Background(), "81189", 9); !provider.IsNotFound(err) {
		t.Errorf("SeasonDetails(9) error = %v, want not found", err)
	}
}

func TestEpisodeDetails(t *testing.T) {
	prov := newTestProvider(t, &fakeClient{
		episodes: func(req operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error) {
			if *req.EpisodeNumber != 2 {
				return episodesFixture(t, `{"data":{"episodes":[]}}`), nil
			}
			return episodesFixture(t, `{"data":{"episodes":[{
				"number":2,
				"seasonNumber":1,
				"name":"Cat's in the Bag...",
				"overview":"Walt and Jesse clean up.",
				"year":"2008",
				"image":"https://artworks.thetvdb.com/ep.jpg"
			}]}}`), nil
		},
	})

	ep, err := prov.EpisodeDetails(context.Background(), "81189", 1, 2)
	if err != nil {
		t.Fatalf("EpisodeDetails() error = %v", err)
	}
	want := &provider.Episode{
		Season:    1,
		Episode:   2,
		Title:     "Cat's in the Bag...",
		Plot:      "Walt and Jesse clean up.",
		PosterURL: "https://artworks.thetvdb.com/ep.jpg",
		Year:      "2008",
	}
	if diff := cmp.Diff(want, ep); diff != "" {
		t.Errorf("EpisodeDetails() mismatch (-want +got):\n%s", diff)
	}

	if _, err := prov.EpisodeDetails(context.Background(), "81189", 1, 40); !provider.IsNotFound(err) {
		t.Errorf("EpisodeDetails(missing) error = %v, want not found", err)
	}
}

func TestMapError(t *testing.T) {
	prov := New()
	tests := map[string]struct {
		err  error
		code string
	}{
		"auth":        {err: errors.New("401 Unauthorized"), code: provider.CodeAuthFailed},
		"rate limit":  {err: errors.New("429 Too Many Requests"), code: provider.CodeRateLimited},
		"not found":   {err: errors.New("404 not found"), code: provider.CodeNotFound},
		"unavailable": {err: errors.New("503 Service Unavailable"), code: provider.CodeUnavailable},
		"other":       {err: errors.New("boom"), code: provider.CodeUnknown},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var perr *provider.ProviderError
			if !errors.As(prov.mapError(tc.err), &perr) || perr.Code != tc.code {
				t.Errorf("mapError(%v) = %v, want code %s", tc.err, perr, tc.code)
			}
		})
	}
}

func TestRateLimitIsRetried(t *testing.T) {
	calls := 0
	prov := newTestProvider(t, &fakeClient{
		episodes: func(req operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("429 too many requests")
			}
			return episodesFixture(t, `{"data":{"episodes":[{"number":1},{"number":2}]}}`), nil
		},
	})

	season, err := prov.SeasonDetails(context.Background(), "81189", 1)
	if err != nil {
		t.Fatalf("SeasonDetails() error = %v", err)
	}
	if season.EpisodeCount != 2 || calls != 2 {
		t.Errorf("EpisodeCount = %d after %d calls, want 2 after 2", season.EpisodeCount, calls)
	}
}
