package provider

import (
	"fmt"
	"sort"
	"sync"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

type registryEntry struct {
	provider Provider
	priority int
	enabled  bool
	config   map[string]interface{}
}

// Registry manages all available providers. Lookups are lock free; writers
// are serialized so read-modify-write updates of an entry do not race.
type Registry struct {
	mu      sync.Mutex
	entries *csmap.CsMap[string, *registryEntry]
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		entries: csmap.Create[string, *registryEntry](),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(name string, provider Provider, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries.Has(name) {
		return fmt.Errorf("provider %s already registered", name)
	}

	if err := ValidateCapabilities(provider.Capabilities()); err != nil {
		return fmt.Errorf("invalid provider capabilities for %s: %w", name, err)
	}

	r.entries.Store(name, &registryEntry{
		provider: provider,
		priority: priority,
		enabled:  false, // Disabled by default
	})

	return nil
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	entry, exists := r.entries.Load(name)
	if !exists {
		return nil, false
	}
	return entry.provider, true
}

// List returns all registered provider names, highest priority first
func (r *Registry) List() []string {
	type ranked struct {
		name     string
		priority int
	}

	all := make([]ranked, 0, r.entries.Count())
	r.entries.Range(func(name string, entry *registryEntry) bool {
		all = append(all, ranked{name: name, priority: entry.priority})
		return false
	})

	sort.Slice(all, func(i, j int) bool {
		if all[i].priority == all[j].priority {
			return all[i].name < all[j].name
		}
		return all[i].priority > all[j].priority
	})

	names := make([]string, len(all))
	for i, r := range all {
		names[i] = r.name
	}
	return names
}

// Enabled reports whether a provider has been enabled
func (r *Registry) Enabled(name string) bool {
	entry, exists := r.entries.Load(name)
	return exists && entry.enabled
}

// Enable enables a provider
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries.Load(name)
	if !exists {
		return fmt.Errorf("provider %s not found", name)
	}

	if entry.provider.Capabilities().RequiresAuth && len(entry.config) == 0 {
		return fmt.Errorf("provider %s requires configuration", name)
	}

	updated := *entry
	updated.enabled = true
	r.entries.Store(name, &updated)
	return nil
}

// Configure validates and applies configuration to a provider
func (r *Registry) Configure(name string, config map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries.Load(name)
	if !exists {
		return fmt.Errorf("provider %s not found", name)
	}

	if err := ValidateConfig(entry.provider.ConfigSchema(), config); err != nil {
		return fmt.Errorf("failed to configure provider %s: %w", name, err)
	}

	if err := entry.provider.Configure(config); err != nil {
		return fmt.Errorf("failed to configure provider %s: %w", name, err)
	}

	updated := *entry
	updated.config = config
	r.entries.Store(name, &updated)
	return nil
}

// Resolve returns the named provider when it is enabled. An empty name picks
// the highest priority enabled provider.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name != "" {
		entry, exists := r.entries.Load(name)
		if !exists {
			return nil, fmt.Errorf("provider %s not found", name)
		}
		if !entry.enabled {
			return nil, fmt.Errorf("provider %s is not enabled", name)
		}
		return entry.provider, nil
	}

	for _, candidate := range r.List() {
		if entry, ok := r.entries.Load(candidate); ok && entry.enabled {
			return entry.provider, nil
		}
	}
	return nil, fmt.Errorf("no enabled provider")
}
