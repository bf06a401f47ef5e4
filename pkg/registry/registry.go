// Package registry names the models that the CLI and server adapters can plan and run.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// SetupFunc prepares the system under test for a run and returns the factory creating
// one subject per plan. teardown is called once the run is over; it may be nil.
type SetupFunc func(ctx context.Context) (factory ports.SubjectFactory, teardown func(context.Context) error, err error)

// Model is a registered machine together with the environment it is tested against.
type Model struct {
	Name        string
	Description string
	Machine     domain.Machine
	Setup       SetupFunc
}

// Registry manages the available models.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// Default is the registry used by the espalier command.
var Default = New()

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		models: make(map[string]Model),
	}
}

// Register adds a model. Names must be unique.
func (r *Registry) Register(m Model) error {
	if m.Name == "" {
		return errors.New("model name is required")
	}
	if m.Setup == nil {
		return fmt.Errorf("model %q: setup is required", m.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("model %q already registered", m.Name)
	}
	r.models[m.Name] = m
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(m Model) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (Model, error) {
	r.mu.RLock()
	m, ok := r.models[name]
	r.mu.RUnlock()

	if !ok {
		return Model{}, fmt.Errorf("%w: %s", domain.ErrModelNotFound, name)
	}
	return m, nil
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
