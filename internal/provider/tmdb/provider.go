package tmdb

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/ryanbradynd05/go-tmdb"
)

const (
	providerName = "tmdb"

	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
)

// Provider implements the provider.Provider interface for TMDB
type Provider struct {
	client        TMDBClient
	caller        *provider.Caller
	language      string
	apiKey        string
	imageBaseURL  string
	promoteEgg    bool
	requirePoster bool
	config        map[string]interface{}
}

// TMDBClient interface for testing (matches *tmdb.TMDb exactly)
type TMDBClient interface {
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetTvInfo(id int, options map[string]string) (*tmdb.TV, error)
	GetTvSeasonInfo(showID, seasonID int, options map[string]string) (*tmdb.TvSeason, error)
	GetTvEpisodeInfo(showID, seasonNum, episodeNum int, options map[string]string) (*tmdb.TvEpisode, error)
}

// New creates a new TMDB provider instance
func New() *Provider {
	return &Provider{
		language:      "en-US",
		imageBaseURL:  defaultImageBaseURL,
		requirePoster: true,
		config:        make(map[string]interface{}),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// Description returns the provider description
func (p *Provider) Description() string {
	return "The Movie Database (TMDB) series metadata"
}

// Capabilities returns what this provider can do
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeShow,
			provider.MediaTypeSeason,
			provider.MediaTypeEpisode,
		},
		RequiresAuth: true,
		Priority:     100, // High priority as a comprehensive provider
		SeasonCounts: true,
	}
}

// ConfigSchema returns the configuration schema for this provider
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	fields := []provider.ConfigField{
		{
			Name:        "api_key",
			DisplayName: "API Key",
			Type:        provider.ConfigFieldTypePassword,
			Required:    true,
			Description: "TMDB API key (not the Read Access Token). Get it from themoviedb.org/settings/api",
			Sensitive:   true,
		},
		{
			Name:        "language",
			DisplayName: "Language",
			Type:        provider.ConfigFieldTypeString,
			Default:     "en-US",
			Description: "Preferred language for metadata",
		},
		{
			Name:        "image_base_url",
			DisplayName: "Image Base URL",
			Type:        provider.ConfigFieldTypeString,
			Default:     defaultImageBaseURL,
			Description: "Prefix joined with TMDB poster and still paths",
		},
	}
	return provider.ConfigSchema{Fields: append(fields, provider.CallerSchemaFields()...)}
}

// Configure applies configuration to the provider
func (p *Provider) Configure(config map[string]interface{}) error {
	p.config = config

	apiKey, ok := config["api_key"].(string)
	if !ok || strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	p.apiKey = strings.TrimSpace(apiKey)

	if language, ok := config["language"].(string); ok && language != "" {
		p.language = language
	} else {
		p.language = "en-US"
	}

	if base, ok := config["image_base_url"].(string); ok && base != "" {
		p.imageBaseURL = strings.TrimRight(base, "/")
	}

	if promote, ok := config["promote_easter_egg"].(bool); ok {
		p.promoteEgg = promote
	}

	if require, ok := config["require_poster"].(bool); ok {
		p.requirePoster = require
	}

	p.caller = provider.ApplyCallerConfig(providerName, config)

	// Allow a pre-installed client (useful for tests).
	if p.client == nil {
		p.client = tmdb.Init(tmdb.Config{
			APIKey:   p.apiKey,
			Proxies:  nil,
			UseProxy: false,
		})
	}

	return nil
}

// mapError maps TMDB errors to provider errors
func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(*provider.ProviderError); ok {
		return err
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "invalid api key") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeAuthFailed,
			Message:  "TMDB authentication failed: " + err.Error(),
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "404") || strings.Contains(errStr, "could not be found") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     provider.CodeNotFound,
			Message:  "TMDB resource not found: " + err.Error(),
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeRateLimited,
			Message:    "TMDB rate limit exceeded",
			Retry:      true,
			RetryAfter: 10,
		}
	}
	if strings.Contains(errStr, "503") || strings.Contains(errStr, "unavailable") {
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       provider.CodeUnavailable,
			Message:    "TMDB service unavailable",
			Retry:      true,
			RetryAfter: 30,
		}
	}

	return &provider.ProviderError{
		Provider: providerName,
		Code:     provider.CodeUnknown,
		Message:  "TMDB error: " + err.Error(),
		Retry:    false,
	}
}

func (p *Provider) imageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return p.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}
