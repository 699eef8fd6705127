package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "EPISODE_ROULETTE"

// EnvKeyReplacer turns configuration keys into environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config holds every runtime setting.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" json:"provider"`
	Picker   PickerConfig   `mapstructure:"picker" json:"picker"`
	Search   SearchConfig   `mapstructure:"search" json:"search"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
	Client   ClientConfig   `mapstructure:"client" json:"client"`

	v  *viper.Viper
	fs afero.Fs
}

// ProviderConfig selects and tunes the metadata backend.
type ProviderConfig struct {
	Name      string          `mapstructure:"name" json:"name"`
	Timeout   time.Duration   `mapstructure:"timeout" json:"timeout"`
	Language  string          `mapstructure:"language" json:"language"`
	OMDb      KeyConfig       `mapstructure:"omdb" json:"omdb"`
	TMDB      KeyConfig       `mapstructure:"tmdb" json:"tmdb"`
	TVDB      KeyConfig       `mapstructure:"tvdb" json:"tvdb"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry" json:"retry"`
}

type KeyConfig struct {
	APIKey string `mapstructure:"api_key" json:"api_key"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" json:"requests"`
	Window   time.Duration `mapstructure:"window" json:"window"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts" json:"attempts"`
	Delay    time.Duration `mapstructure:"delay" json:"delay"`
}

type PickerConfig struct {
	Attempts int `mapstructure:"attempts" json:"attempts"`
}

type SearchConfig struct {
	PromoteEasterEgg bool `mapstructure:"promote_easter_egg" json:"promote_easter_egg"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" json:"port"`
	Env          string        `mapstructure:"env" json:"env"`
	StaticDir    string        `mapstructure:"static_dir" json:"static_dir"`
	RateLimit    ServerLimit   `mapstructure:"rate_limit" json:"rate_limit"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
}

type ServerLimit struct {
	RPS   float64 `mapstructure:"rps" json:"rps"`
	Burst int     `mapstructure:"burst" json:"burst"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	JSON       bool   `mapstructure:"json" json:"json"`
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

type ClientConfig struct {
	ServerURL      string        `mapstructure:"server_url" json:"server_url"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" json:"search_debounce"`
	StateDir       string        `mapstructure:"state_dir" json:"state_dir"`
}

// Field describes one configuration key.
type Field struct {
	Key         string
	Value       any
	Description string
	Sensitive   bool
	Env         []string // extra environment variables, checked after the prefixed one
}

// Fields lists every key with its default.
var Fields = []Field{
	{Key: "provider.name", Value: "tmdb", Description: "Metadata backend: omdb, tmdb or tvdb"},
	{Key: "provider.timeout", Value: 10 * time.Second, Description: "Timeout for a single upstream request"},
	{Key: "provider.language", Value: "en-US", Description: "Preferred metadata language (TMDB)"},
	{Key: "provider.omdb.api_key", Value: "", Description: "OMDb API key", Sensitive: true, Env: []string{"OMDB_API_KEY"}},
	{Key: "provider.tmdb.api_key", Value: "", Description: "TMDB API key", Sensitive: true, Env: []string{"TMDB_API_KEY"}},
	{Key: "provider.tvdb.api_key", Value: "", Description: "TVDB v4 API key", Sensitive: true, Env: []string{"TVDB_API_KEY"}},
	{Key: "provider.rate_limit.requests", Value: 38, Description: "Upstream requests allowed per window (0 disables)"},
	{Key: "provider.rate_limit.window", Value: 10 * time.Second, Description: "Upstream rate limit window"},
	{Key: "provider.retry.attempts", Value: 3, Description: "Attempts for rate limited upstream requests"},
	{Key: "provider.retry.delay", Value: time.Second, Description: "Initial delay between rate limited attempts"},
	{Key: "picker.attempts", Value: 5, Description: "Episode lookups before accepting missing metadata"},
	{Key: "search.promote_easter_egg", Value: false, Description: "Move show 815 to the top when searching for \"peep\""},
	{Key: "server.port", Value: 8080, Description: "HTTP listen port", Env: []string{"PORT"}},
	{Key: "server.env", Value: "development", Description: "development enables CORS, production disables it"},
	{Key: "server.static_dir", Value: "frontend/build", Description: "Static assets served when the directory exists"},
	{Key: "server.rate_limit.rps", Value: 5.0, Description: "Requests per second allowed per client (0 disables)"},
	{Key: "server.rate_limit.burst", Value: 20, Description: "Per-client burst size"},
	{Key: "server.read_timeout", Value: 15 * time.Second, Description: "HTTP read timeout"},
	{Key: "server.write_timeout", Value: 30 * time.Second, Description: "HTTP write timeout"},
	{Key: "log.level", Value: "info", Description: "Log level: trace, debug, info, warn, error"},
	{Key: "log.json", Value: false, Description: "Emit JSON log lines"},
	{Key: "log.file", Value: "", Description: "Also write logs to this rotated file"},
	{Key: "log.max_size_mb", Value: 10, Description: "Rotate the log file at this size"},
	{Key: "log.max_backups", Value: 3, Description: "Rotated log files to keep"},
	{Key: "log.max_age_days", Value: 30, Description: "Days to keep rotated log files"},
	{Key: "client.server_url", Value: "http://localhost:8080", Description: "Server used by the terminal client"},
	{Key: "client.search_debounce", Value: 500 * time.Millisecond, Description: "Delay before a typed query is searched"},
	{Key: "client.state_dir", Value: "~/.episode-roulette", Description: "Where the terminal client keeps favourites and ranges"},
}

// ProviderNames lists the supported metadata backends.
var ProviderNames = []string{"omdb", "tmdb", "tvdb"}

// ConfigPath returns the path to the default config file
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".episode-roulette", "config.json"), nil
}

func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	for _, field := range Fields {
		v.SetDefault(field.Key, field.Value)
		if len(field.Env) > 0 {
			names := append([]string{EnvPrefix + "_" + strings.ToUpper(EnvKeyReplacer.Replace(field.Key))}, field.Env...)
			_ = v.BindEnv(append([]string{field.Key}, names...)...)
		}
	}
	return v
}

// DefaultConfig returns the configuration with every default applied and no
// file or environment overrides.
func DefaultConfig() *Config {
	v := viper.New()
	for _, field := range Fields {
		v.SetDefault(field.Key, field.Value)
	}
	cfg := &Config{v: v, fs: afero.NewOsFs()}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads the configuration from path, or from the default location when
// path is empty, and applies environment overrides. A missing default file is
// not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := newViper(fs)

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(fs, path) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{v: v, fs: fs}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
	cfg.Client.StateDir = expandHome(cfg.Client.StateDir)

	return cfg, nil
}

func isNotExist(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Set overrides a single key, as command line flags do.
func (cfg *Config) Set(key string, value any) error {
	cfg.v.Set(key, value)
	return cfg.v.Unmarshal(cfg)
}

// Validate checks the settings. requireKey demands an API key for the
// selected provider.
func (cfg *Config) Validate(requireKey bool) error {
	var problems []string

	known := false
	for _, name := range ProviderNames {
		known = known || name == cfg.Provider.Name
	}
	if !known {
		problems = append(problems, fmt.Sprintf("unknown provider %q (want one of %s)", cfg.Provider.Name, strings.Join(ProviderNames, ", ")))
	} else if requireKey && strings.TrimSpace(cfg.APIKey(cfg.Provider.Name)) == "" {
		problems = append(problems, fmt.Sprintf("provider.%s.api_key is required", cfg.Provider.Name))
	}

	if cfg.Picker.Attempts < 1 {
		problems = append(problems, "picker.attempts must be at least 1")
	}
	if cfg.Provider.Retry.Attempts < 1 {
		problems = append(problems, "provider.retry.attempts must be at least 1")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", cfg.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// APIKey returns the key configured for a provider.
func (cfg *Config) APIKey(name string) string {
	switch name {
	case "omdb":
		return cfg.Provider.OMDb.APIKey
	case "tmdb":
		return cfg.Provider.TMDB.APIKey
	case "tvdb":
		return cfg.Provider.TVDB.APIKey
	}
	return ""
}

// ProviderSettings builds the configuration map handed to the named
// provider's Configure.
func (cfg *Config) ProviderSettings(name string) map[string]interface{} {
	return map[string]interface{}{
		"api_key":                        cfg.APIKey(name),
		"language":                       cfg.Provider.Language,
		"promote_easter_egg":             cfg.Search.PromoteEasterEgg,
		provider.OptionTimeout:           cfg.Provider.Timeout,
		provider.OptionRateLimitRequests: cfg.Provider.RateLimit.Requests,
		provider.OptionRateLimitWindow:   cfg.Provider.RateLimit.Window,
		provider.OptionRetryAttempts:     cfg.Provider.Retry.Attempts,
		provider.OptionRetryDelay:        cfg.Provider.Retry.Delay,
	}
}

// Setting is one resolved key for display.
type Setting struct {
	Key         string
	Value       any
	Description string
}

// Settings returns every key with its effective value, secrets masked,
// sorted by key.
func (cfg *Config) Settings() []Setting {
	schema := provider.ConfigSchema{}
	values := make(map[string]interface{}, len(Fields))
	for _, field := range Fields {
		schema.Fields = append(schema.Fields, provider.ConfigField{Name: field.Key, Sensitive: field.Sensitive})
		values[field.Key] = cfg.v.Get(field.Key)
	}
	masked := provider.MaskConfig(schema, values)

	settings := make([]Setting, 0, len(Fields))
	for _, field := range Fields {
		settings = append(settings, Setting{Key: field.Key, Value: masked[field.Key], Description: field.Description})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings
}

// Save writes the effective configuration to path, creating its directory.
func (cfg *Config) Save(path string) error {
	if err := cfg.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cfg.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
