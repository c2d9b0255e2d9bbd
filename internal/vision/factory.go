package vision

import (
	"fmt"
	"sort"

	"orderlens/internal/config"
	"orderlens/internal/port"
)

// ProviderFactory is a function that creates a VisionModel from a provider config.
type ProviderFactory func(cfg *config.VisionProviderConfig) (port.VisionModel, error)

// registry of vision provider factories, populated by init() in each provider
// package or explicitly via Register.
var providers = map[string]ProviderFactory{}

// Register registers a vision provider factory by name.
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// New creates a VisionModel from a provider config using the registered factory.
func New(cfg *config.VisionProviderConfig) (port.VisionModel, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vision provider: %s (registered: %v)", cfg.Provider, Registered())
	}
	return factory(cfg)
}

// Registered lists the registered provider names, sorted.
func Registered() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
