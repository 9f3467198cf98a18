package agent

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Def describes one agent entry in the run configuration. Kind-specific
// parameters are captured by the inline Extra map and decoded on demand.
type Def struct {
	ID    string         `yaml:"id"`
	Kind  string         `yaml:"kind"`
	Extra map[string]any `yaml:",inline"`
}

// GetString returns a string parameter or def when absent.
func (d *Def) GetString(key, def string) string {
	if v, ok := d.Extra[key].(string); ok {
		return v
	}
	return def
}

// GetFloat returns a numeric parameter or def when absent. YAML decodes
// integers as int, so both forms are accepted.
func (d *Def) GetFloat(key string, def float64) float64 {
	switch v := d.Extra[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// UnmarshalKey decodes one parameter into v via a JSON round trip, allowing
// structured parameters (lists, nested maps) without a custom decoder per
// agent kind.
func (d *Def) UnmarshalKey(key string, v any) error {
	raw, exists := d.Extra[key]
	if !exists {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal key %q: %w", key, err)
	}
	return nil
}

// FactoryFunc builds an agent instance from its configuration entry.
type FactoryFunc func(Def) (Agent, error)

// Registry maps agent kinds to factories. An interface so tests can supply
// their own instead of mutating the package-level default.
type Registry interface {
	Register(kind string, factory FactoryFunc)
	GetFactory(kind string) (FactoryFunc, bool)
}

// DefaultRegistry is the registry implementation backing the package-level
// Register/GetFactory functions.
type DefaultRegistry struct {
	mu        sync.RWMutex
	factories map[string]FactoryFunc
}

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{factories: make(map[string]FactoryFunc)}
}

func (r *DefaultRegistry) Register(kind string, factory FactoryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

func (r *DefaultRegistry) GetFactory(kind string) (FactoryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Register registers a factory with the default registry. Typically called
// from an init function in the package implementing the kind.
func Register(kind string, factory FactoryFunc) {
	defaultRegistry.Register(kind, factory)
}

// GetFactory retrieves a factory from the default registry.
func GetFactory(kind string) (FactoryFunc, bool) {
	return defaultRegistry.GetFactory(kind)
}

// Create builds an agent from def using the default registry.
func Create(def Def) (Agent, error) {
	return CreateWithRegistry(def, defaultRegistry)
}

// CreateWithRegistry builds an agent from def using a custom registry.
func CreateWithRegistry(def Def, registry Registry) (Agent, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("agent def missing id")
	}
	factory, ok := registry.GetFactory(def.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown agent kind: %s", def.Kind)
	}
	return factory(def)
}
