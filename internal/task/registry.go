package task

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"cogengine/internal/services"
)

// Factory produces a fresh Task instance for one step execution.
type Factory func() Task

// Registry maps task type names to factories. Names are case-sensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds name to factory. Rebinding a name is rejected.
func (r *Registry) Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" {
		return services.Wrap(services.ErrConfiguration, "registry", "register", "task name is empty", nil)
	}
	if factory == nil {
		return services.Wrap(services.ErrConfiguration, "registry", "register", fmt.Sprintf("task %q has no factory", name), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return services.Wrap(services.ErrDuplicateTask, "registry", "register", fmt.Sprintf("task %q is already registered", name), nil)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for process start-up wiring, panicking on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve returns a fresh Task for name.
func (r *Registry) Resolve(name string) (Task, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrTaskNotFound, "registry", "resolve",
			fmt.Sprintf("task %q not found; is the package providing it registered?", name), nil)
	}
	return factory(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
