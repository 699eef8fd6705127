package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/Digital-Shane/omdb"
)

const providerName = "omdb"

// Provider implements the provider.Provider interface for OMDb.
type Provider struct {
	client     *omdb.Client
	httpClient *http.Client
	caller     *provider.Caller
	apiKey     string
	baseURL    string
	config     map[string]interface{}
}

// New creates a new OMDb provider instance.
func New() *Provider {
	return &Provider{
		baseURL: omdb.DefaultURL,
		config:  make(map[string]interface{}),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Description returns a human readable description of the provider.
func (p *Provider) Description() string {
	return "Open Movie Database (OMDb) series metadata"
}

// Capabilities returns what this provider can handle.
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeShow,
			provider.MediaTypeSeason,
			provider.MediaTypeEpisode,
		},
		RequiresAuth: true,
		Priority:     90,
		SeasonCounts: false, // episode counts need a season listing per season
	}
}

// ConfigSchema returns the configuration schema for this provider.
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	fields := []provider.ConfigField{
		{
			Name:        "api_key",
			DisplayName: "API Key",
			Type:        provider.ConfigFieldTypePassword,
			Required:    true,
			Description: "OMDb API key. Request one from https://www.omdbapi.com/apikey.aspx",
			Sensitive:   true,
		},
	}
	return provider.ConfigSchema{Fields: append(fields, provider.CallerSchemaFields()...)}
}

// Configure applies configuration to the provider.
func (p *Provider) Configure(config map[string]interface{}) error {
	apiKeyRaw, ok := config["api_key"].(string)
	if !ok {
		return fmt.Errorf("api_key is required")
	}

	apiKey := strings.TrimSpace(apiKeyRaw)
	if apiKey == "" {
		return fmt.Errorf("api_key is required")
	}

	p.caller = provider.ApplyCallerConfig(providerName, config)

	// Allow overriding the HTTP client before configuration (useful for tests).
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: p.caller.Timeout}
	}

	if base, ok := config["base_url"].(string); ok && base != "" {
		p.baseURL = base
	}

	p.apiKey = apiKey
	p.config = config
	p.client = omdb.NewClient(p.apiKey, p.httpClient)

	return nil
}

func (p *Provider) ready(ctx context.Context) error {
	if p.client == nil || p.apiKey == "" {
		return fmt.Errorf("provider not configured")
	}
	return ctx.Err()
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return provider.TimeoutError(providerName, err)
	}

	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "no api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "OMDb authentication failed: " + msg,
			Retry:    false,
		}
	case strings.Contains(lower, "not found"), strings.Contains(lower, "incorrect imdb id"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  msg,
			Retry:    false,
		}
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    msg,
			Retry:      true,
			RetryAfter: 5,
		}
	default:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeUnknown,
			Message:  msg,
			Retry:    false,
		}
	}
}

// buildRequest constructs an HTTP request with common parameters applied.
func (p *Provider) buildRequest(ctx context.Context, params map[string]string) (*http.Request, error) {
	if p.httpClient == nil {
		return nil, fmt.Errorf("http client not configured")
	}

	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	values.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = values.Encode()
	return req, nil
}

// query performs a raw OMDb request and decodes the payload into out. OMDb
// reports most failures as HTTP 200 with Response "False"; those are returned
// as errors carrying the upstream message.
func (p *Provider) query(ctx context.Context, params map[string]string, out responder) error {
	req, err := p.buildRequest(ctx, params)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return p.mapError(fmt.Errorf("invalid api key (status %d)", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return p.mapError(fmt.Errorf("too many requests (status %d)", resp.StatusCode))
	case resp.StatusCode >= http.StatusInternalServerError:
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeUnavailable,
			Message:    fmt.Sprintf("OMDb service unavailable (status %d)", resp.StatusCode),
			Retry:      true,
			RetryAfter: 30,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode OMDb response: %w", err)
	}

	if ok, msg := out.status(); !ok {
		if msg == "" {
			msg = "not found"
		}
		// auth and rate limit rejections become provider errors so the
		// caller's retry policy can see them
		if mapped := p.mapError(errors.New(msg)); !isCode(mapped, provider.CodeUnknown) && !isCode(mapped, provider.CodeNotFound) {
			return mapped
		}
		return &rejectedError{message: msg}
	}
	return nil
}

// rejectedError is an OMDb payload with Response "False".
type rejectedError struct {
	message string
}

func (e *rejectedError) Error() string {
	return e.message
}
