package provider

import (
	"context"
)

// MediaType represents the type of catalog entry a provider can resolve
type MediaType string

const (
	MediaTypeShow    MediaType = "show"
	MediaTypeSeason  MediaType = "season"
	MediaTypeEpisode MediaType = "episode"
)

// Provider is the main interface that all show metadata providers must implement
type Provider interface {
	// Identification
	Name() string
	Description() string

	// Capability discovery
	Capabilities() ProviderCapabilities

	// Configuration
	Configure(config map[string]interface{}) error
	ConfigSchema() ConfigSchema

	// Data fetching
	SearchShows(ctx context.Context, query string) ([]Show, error)
	ShowDetails(ctx context.Context, id string) (*Show, error)
	SeasonDetails(ctx context.Context, id string, season int) (*Season, error)
	EpisodeDetails(ctx context.Context, id string, season, episode int) (*Episode, error)
}

// ProviderCapabilities describes what a provider can do
type ProviderCapabilities struct {
	MediaTypes   []MediaType // What catalog entries are supported
	RequiresAuth bool        // Whether an API key is required
	Priority     int         // Default priority for this provider (higher = preferred)
	SeasonCounts bool        // Whether ShowDetails reports per-season episode counts
}

// ConfigSchema describes the configuration requirements for a provider
type ConfigSchema struct {
	Fields []ConfigField
}

// ConfigField describes a single configuration field
type ConfigField struct {
	Name        string          // Field name
	DisplayName string          // Human-readable name
	Type        ConfigFieldType // Field type
	Required    bool            // Whether this field is required
	Default     interface{}     // Default value
	Description string          // Help text
	Sensitive   bool            // Whether this contains sensitive data (for masking)
}

// ConfigFieldType represents the type of a configuration field
type ConfigFieldType string

const (
	ConfigFieldTypeString   ConfigFieldType = "string"
	ConfigFieldTypeDuration ConfigFieldType = "duration"
	ConfigFieldTypeInt      ConfigFieldType = "int"
	ConfigFieldTypePassword ConfigFieldType = "password"
)

// Show is a normalized snapshot of a series as reported by a provider.
type Show struct {
	ID           string
	Title        string
	PosterURL    string
	YearStart    string
	YearEnd      string // empty while the show is still running
	Popularity   float64
	TotalSeasons int
	Seasons      []Season
}

// EpisodeCount returns the number of episodes the provider reported for a
// season, if it reported one.
func (s *Show) EpisodeCount(season int) (int, bool) {
	for _, known := range s.Seasons {
		if known.Number == season && known.EpisodeCount > 0 {
			return known.EpisodeCount, true
		}
	}
	return 0, false
}

// Season holds the episode count for one season of a show.
type Season struct {
	Number       int
	EpisodeCount int
}

// Episode is a normalized episode descriptor. Empty strings mean the provider
// did not supply the field.
type Episode struct {
	Season    int
	Episode   int
	Title     string
	Plot      string
	PosterURL string
	Rating    string
	Year      string
}

// HasMetadata reports whether the provider returned a title or a plot.
func (e *Episode) HasMetadata() bool {
	return e.Title != "" || e.Plot != ""
}
