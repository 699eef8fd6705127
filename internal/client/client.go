// Package client talks to an episode-roulette server over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets service.IsNotFound and service.IsInvalidRequest classify
// server responses.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return service.ErrNotFound
	case http.StatusBadRequest:
		return service.ErrInvalidRequest
	}
	return nil
}

// Client implements service.Catalog against a remote server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient gets a
// 30 second timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

var _ service.Catalog = (*Client)(nil)

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body service.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &body) != nil {
			body.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SearchShows queries GET /shows.
func (c *Client) SearchShows(ctx context.Context, query string) ([]service.ShowSummary, error) {
	var shows []service.ShowSummary
	if err := c.get(ctx, "/shows", url.Values{"q": {query}}, &shows); err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []service.ShowSummary{}
	}
	return shows, nil
}

// Show queries GET /shows/{id}.
func (c *Client) Show(ctx context.Context, id string) (*service.ShowSummary, error) {
	var show service.ShowSummary
	if err := c.get(ctx, "/shows/"+url.PathEscape(id), nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// RandomEpisode queries GET /episodes/{id}. Empty request fields are left
// out of the query string.
func (c *Client) RandomEpisode(ctx context.Context, req picker.Request) (*service.EpisodeResponse, error) {
	query := url.Values{}
	if req.SeasonMin != "" {
		query.Set("seasonMin", req.SeasonMin)
	}
	if req.SeasonMax != "" {
		query.Set("seasonMax", req.SeasonMax)
	}
	if req.History != "" {
		query.Set("history", req.History)
	}

	var resp service.EpisodeResponse
	if err := c.get(ctx, "/episodes/"+url.PathEscape(req.ShowID), query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Episode queries GET /episodes/{id}/{season}/{episode}.
func (c *Client) Episode(ctx context.Context, id string, season, episode int) (*service.EpisodeResponse, error) {
	path := "/episodes/" + url.PathEscape(id) + "/" + strconv.Itoa(season) + "/" + strconv.Itoa(episode)

	var resp service.EpisodeResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
