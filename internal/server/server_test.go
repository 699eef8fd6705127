package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	shows       []service.ShowSummary
	err         error
	lastRequest picker.Request
	lastEpisode [2]int
}

func (f *fakeCatalog) SearchShows(_ context.Context, query string) ([]service.ShowSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shows, nil
}

func (f *fakeCatalog) Show(_ context.Context, id string) (*service.ShowSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, show := range f.shows {
		if show.ID == id {
			return &show, nil
		}
	}
	return nil, fmt.Errorf("show %s: %w", id, service.ErrNotFound)
}

func (f *fakeCatalog) RandomEpisode(_ context.Context, req picker.Request) (*service.EpisodeResponse, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	if req.ShowID != "tt1" {
		return nil, provider.NotFound("fake", "show %s not found", req.ShowID)
	}
	title := "Pilot"
	return &service.EpisodeResponse{
		Episode: service.EpisodeDTO{Season: 1, Episode: 2, Title: &title, TotalSeasons: 3, Attempts: 1},
		Show:    service.ShowSummary{ID: "tt1", Title: "Show", YearStart: "2001"},
	}, nil
}

func (f *fakeCatalog) Episode(_ context.Context, id string, season, episode int) (*service.EpisodeResponse, error) {
	f.lastEpisode = [2]int{season, episode}
	if f.err != nil {
		return nil, f.err
	}
	if id != "tt1" {
		return nil, provider.NotFound("fake", "show %s not found", id)
	}
	return &service.EpisodeResponse{
		Episode: service.EpisodeDTO{Season: season, Episode: episode, TotalSeasons: 3},
		Show:    service.ShowSummary{ID: "tt1", Title: "Show", YearStart: "2001"},
	}, nil
}

func newTestServer(cfg Config, catalog service.Catalog) (*Server, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(cfg, catalog, logger), hook
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body service.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestSearchShows(t *testing.T) {
	catalog := &fakeCatalog{shows: []service.ShowSummary{{ID: "tt1", Title: "Show", YearStart: "2001"}}}
	srv, hook := newTestServer(Config{}, catalog)

	rec := do(t, srv.Router(), http.MethodGet, "/shows?q=show")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 10)

	var got []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "tt1", got[0]["id"])
	assert.Nil(t, got[0]["posterUrl"])
	assert.Nil(t, got[0]["yearEnd"])
	assert.NotContains(t, got[0], "totalSeasons")

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
		if entry.Message == "querying shows" {
			assert.Equal(t, "192.168.1.1", entry.Data["ip"])
			assert.NotEmpty(t, entry.Data["requestId"])
		}
	}
	assert.Contains(t, messages, "querying shows")
	assert.Contains(t, messages, "show results")
}

func TestSearchShowsEmptyList(t *testing.T) {
	srv, hook := newTestServer(Config{}, &fakeCatalog{shows: []service.ShowSummary{}})

	rec := do(t, srv.Router(), http.MethodGet, "/shows?q=nothing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	var found bool
	for _, entry := range hook.AllEntries() {
		found = found || entry.Message == "no show results"
	}
	assert.True(t, found, "expected a no show results log entry")
}

func TestSearchShowsMissingQuery(t *testing.T) {
	srv, _ := newTestServer(Config{}, &fakeCatalog{})

	for _, target := range []string{"/shows", "/shows?q=", "/shows?q=%20%20"} {
		rec := do(t, srv.Router(), http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decodeError(t, rec), target)
	}
}

func TestSearchShowsUpstreamFailure(t *testing.T) {
	srv, hook := newTestServer(Config{}, &fakeCatalog{err: errors.New("boom")})

	rec := do(t, srv.Router(), http.MethodGet, "/shows?q=x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))
	require.NotNil(t, hook.LastEntry())

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			logged = true
			assert.Equal(t, "error while querying shows", entry.Message)
		}
	}
	assert.True(t, logged)
}

func TestGetShow(t *testing.T) {
	catalog := &fakeCatalog{shows: []service.ShowSummary{{ID: "tt1", Title: "Show", YearStart: "2001", TotalSeasons: 3}}}
	srv, _ := newTestServer(Config{}, catalog)

	rec := do(t, srv.Router(), http.MethodGet, "/shows/tt1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"tt1","title":"Show","posterUrl":null,"yearStart":"2001","yearEnd":null,"popularity":0,"totalSeasons":3}`, rec.Body.String())

	rec = do(t, srv.Router(), http.MethodGet, "/shows/tt404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRandomEpisode(t *testing.T) {
	catalog := &fakeCatalog{}
	srv, _ := newTestServer(Config{}, catalog)

	history := url.QueryEscape("[[1,1],[1,3]]")
	for _, path := range []string{"/episodes/tt1", "/episode/tt1"} {
		rec := do(t, srv.Router(), http.MethodGet, path+"?seasonMin=1&seasonMax=2&history="+history)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body service.EpisodeResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 2, body.Episode.Episode)
		assert.Equal(t, "tt1", body.Show.ID)
		assert.Equal(t, picker.Request{ShowID: "tt1", SeasonMin: "1", SeasonMax: "2", History: "[[1,1],[1,3]]"}, catalog.lastRequest)
	}
}

func TestRandomEpisodeStatusCodes(t *testing.T) {
	tests := map[string]struct {
		catalog *fakeCatalog
		path    string
		status  int
	}{
		"unknown show":      {&fakeCatalog{}, "/episodes/tt404", http.StatusNotFound},
		"upstream failure":  {&fakeCatalog{err: errors.New("down")}, "/episodes/tt1", http.StatusInternalServerError},
		"malformed history": {&fakeCatalog{}, "/episodes/tt1?history=%7Bnope", http.StatusOK},
		"invalid request":   {&fakeCatalog{err: fmt.Errorf("%w: blank", service.ErrInvalidRequest)}, "/episodes/tt1", http.StatusBadRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(Config{}, tc.catalog)
			rec := do(t, srv.Router(), http.MethodGet, tc.path)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestGetEpisode(t *testing.T) {
	catalog := &fakeCatalog{}
	srv, _ := newTestServer(Config{}, catalog)

	rec := do(t, srv.Router(), http.MethodGet, "/episodes/tt1/2/5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int{2, 5}, catalog.lastEpisode)

	var body map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotContains(t, body["episode"], "attempts")

	for _, path := range []string{"/episodes/tt1/0/5", "/episodes/tt1/x/5", "/episodes/tt1/1/-2", "/episodes/tt1/1/two"} {
		rec := do(t, srv.Router(), http.MethodGet, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec = do(t, srv.Router(), http.MethodGet, "/episodes/tt404/1/1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		srv, _ := newTestServer(Config{Env: "development"}, &fakeCatalog{})
		rec := do(t, srv.Router(), http.MethodOptions, "/shows")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("production", func(t *testing.T) {
		srv, _ := newTestServer(Config{Env: "production"}, &fakeCatalog{})
		rec := do(t, srv.Router(), http.MethodGet, "/shows?q=x")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

		rec = do(t, srv.Router(), http.MethodOptions, "/shows")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(Config{RateLimitRPS: 0.001, RateLimitBurst: 2}, &fakeCatalog{shows: []service.ShowSummary{}})
	router := srv.Router()

	for i := 0; i < 2; i++ {
		rec := do(t, router, http.MethodGet, "/shows?q=x")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := do(t, router, http.MethodGet, "/shows?q=x")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many requests", decodeError(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/shows?q=x", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 172.16.0.1")
	other := httptest.NewRecorder()
	router.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code, "other clients keep their own bucket")
}

func TestClientIP(t *testing.T) {
	tests := map[string]struct {
		headers map[string]string
		remote  string
		want    string
	}{
		"forwarded chain": {map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "9.9.9.9:1", "1.2.3.4"},
		"real ip":         {map[string]string{"X-Real-IP": " 4.3.2.1 "}, "9.9.9.9:1", "4.3.2.1"},
		"remote addr":     {nil, "9.9.9.9:1234", "9.9.9.9"},
		"ipv6":            {nil, "[::1]:8080", "::1"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(req))
		})
	}
}

func TestStaticAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>roulette</h1>"), 0o644))

	srv, _ := newTestServer(Config{StaticDir: dir}, &fakeCatalog{})
	rec := do(t, srv.Router(), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roulette")

	srv, _ = newTestServer(Config{StaticDir: filepath.Join(dir, "missing")}, &fakeCatalog{})
	rec = do(t, srv.Router(), http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
