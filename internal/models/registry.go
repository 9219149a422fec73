// Package models dispatches model type identifiers to native model
// implementations. Concrete network architectures live outside this module;
// embedding applications register their constructors here, the same way the
// upstream trainer maps model type strings to architecture classes.
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/separation"
)

// Factory builds a native model from a loaded configuration.
type Factory func(cfg *config.Config) (separation.Model, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a model type. Registering an existing name replaces it.
func Register(modelType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[modelType] = f
}

// New constructs the model for a type identifier. An unknown identifier is
// a configuration error and must be surfaced before any inference begins.
func New(modelType string, cfg *config.Config) (separation.Model, error) {
	mu.RLock()
	f, ok := registry[modelType]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model type: %s (known: %v)", modelType, Known())
	}
	model, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("building model %s: %w", modelType, err)
	}
	return model, nil
}

// Known returns the registered model type identifiers, sorted.
func Known() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModeFor selects the accumulation mode for a model type on an
// exported-graph backend. Demucs-style models chunk by training segment and
// produce click-free joins on their own, so they skip the cross-fade.
func ModeFor(modelType string, exportedGraph bool) separation.Mode {
	if exportedGraph && modelType == "htdemucs" {
		return separation.ModeSegmented
	}
	return separation.ModeGeneric
}
