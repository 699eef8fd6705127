// Package init handles provider initialization to avoid import cycles
package init

import (
	"fmt"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/Digital-Shane/episode-roulette/internal/provider/omdb"
	"github.com/Digital-Shane/episode-roulette/internal/provider/tmdb"
	"github.com/Digital-Shane/episode-roulette/internal/provider/tvdb"
)

// LoadBuiltinProviders registers every built-in catalog backend. Providers
// start disabled until Setup configures one.
func LoadBuiltinProviders(registry *provider.Registry) error {
	builtins := []provider.Provider{omdb.New(), tvdb.New(), tmdb.New()}

	for _, p := range builtins {
		if err := registry.Register(p.Name(), p, p.Capabilities().Priority); err != nil {
			return fmt.Errorf("failed to register %s provider: %w", p.Name(), err)
		}
	}

	return nil
}

// Setup configures and enables the named provider and returns it. An empty
// name resolves to the highest priority enabled provider afterwards.
func Setup(registry *provider.Registry, name string, config map[string]interface{}) (provider.Provider, error) {
	if name != "" {
		if err := registry.Configure(name, config); err != nil {
			return nil, err
		}
		if err := registry.Enable(name); err != nil {
			return nil, err
		}
	}

	return registry.Resolve(name)
}
