// Package place holds per-place feature switches and the place identifiers
// used when talking to the lookup services.
package place

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Capabilities gates which panel variants and optional flows a place gets.
type Capabilities struct {
	Contiguity       int  `yaml:"contiguity" json:"contiguity"`
	FindUnpainted    bool `yaml:"find_unpainted" json:"find_unpainted"`
	VRAEffectiveness bool `yaml:"vra_effectiveness" json:"vra_effectiveness"`
}

// Registry answers capability lookups by place id. Unknown places get the
// zero value, which disables every optional flow.
type Registry struct {
	mu     sync.RWMutex
	places map[string]Capabilities
}

type capabilitiesFile struct {
	Places map[string]Capabilities `yaml:"places"`
}

// NewRegistry creates a registry from an in-memory table.
func NewRegistry(places map[string]Capabilities) *Registry {
	copied := make(map[string]Capabilities, len(places))
	for id, caps := range places {
		copied[id] = caps
	}
	return &Registry{places: copied}
}

// ParseRegistry reads a YAML document of the form
//
//	places:
//	  colorado: {contiguity: 2, find_unpainted: true}
func ParseRegistry(data []byte) (*Registry, error) {
	var file capabilitiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities: %w", err)
	}
	for id, caps := range file.Places {
		if caps.Contiguity < 0 || caps.Contiguity > 2 {
			return nil, fmt.Errorf("place %s: contiguity version %d is not 0, 1 or 2", id, caps.Contiguity)
		}
	}
	return NewRegistry(file.Places), nil
}

// LoadRegistry reads the capability table from disk. An empty path yields
// the built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(Defaults), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities file %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// Lookup returns the capabilities of a place.
func (r *Registry) Lookup(placeID string) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.places[placeID]
}

// Set overrides one place.
func (r *Registry) Set(placeID string, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.places[placeID] = caps
}

// Defaults is used when no capabilities file is configured.
var Defaults = map[string]Capabilities{
	"colorado":       {Contiguity: 2, FindUnpainted: true},
	"louisiana":      {Contiguity: 2, FindUnpainted: true, VRAEffectiveness: true},
	"ma":             {Contiguity: 2, FindUnpainted: true},
	"indiana":        {Contiguity: 2, FindUnpainted: true},
	"texas":          {Contiguity: 2, FindUnpainted: true, VRAEffectiveness: true},
	"wisconsin":      {Contiguity: 1},
	"pennsylvania":   {Contiguity: 2},
	"north_carolina": {Contiguity: 2, FindUnpainted: true},
}
