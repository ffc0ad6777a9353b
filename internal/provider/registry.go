package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// Registry manages model instances
type Registry struct {
	models map[string]Model
	mu     sync.RWMutex
}

// NewRegistry creates a new model registry
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Model),
	}
}

// Register registers a model
func (r *Registry) Register(model Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := model.Name()
	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model already registered: %s", name)
	}

	r.models[name] = model
	return nil
}

// Get retrieves a model by name
func (r *Registry) Get(name string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, exists := r.models[name]
	if !exists {
		return nil, fmt.Errorf("model not found: %s", name)
	}

	return model, nil
}

// List returns all registered model names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered models
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, model := range r.models {
		if err := model.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close model %s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing models: %v", errs)
	}

	return nil
}

// Initialize creates the configured model and registers it
func (r *Registry) Initialize(cfg types.ProviderConfig, keys credential.Provider) (Model, error) {
	var model Model
	switch cfg.Name {
	case "gemini":
		gm, err := NewGeminiModel(cfg, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		model = gm
	case "stub":
		model = NewStubModel(cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}

	if err := r.Register(model); err != nil {
		return nil, err
	}
	return model, nil
}
