package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a strategy with its default parameters.
type Factory func() Strategy

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a strategy factory under a unique name. It panics on
// duplicates, which would otherwise silently shadow a strategy.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy: duplicate registration of %q", name))
	}
	registry[name] = factory
}

// New builds a registered strategy and applies parameter overrides.
func New(name string, params map[string]float64) (Strategy, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy: unknown strategy %q (available: %v)", name, Names())
	}

	s := factory()
	if len(params) > 0 {
		if err := s.SetParameters(params); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Names lists the registered strategy names sorted alphabetically.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyParams copies known overrides into dst and rejects unknown keys.
func applyParams(dst map[string]float64, overrides map[string]float64, strategyName string) error {
	for key, value := range overrides {
		if _, ok := dst[key]; !ok {
			return fmt.Errorf("strategy %s: unknown parameter %q", strategyName, key)
		}
		dst[key] = value
	}
	return nil
}
