// Package templates renders scaffold source files from generator
// configuration and extracted specification passages.
//
// A Template is any value that can turn a generator configuration plus the
// specification windows found for its traceability IDs into source text.
// Built-in variants are registered by name in a Registry; projects add their
// own with Registry.Register.
package templates

import (
	"sort"
	"sync"

	"github.com/c360studio/semtrace/config"
)

// Built-in template names.
const (
	NameHALImplementation = "hal_implementation"
	NameControlSystem     = "control_system"
)

// Template renders source text. Implementations must not keep state between
// calls and must not perform I/O.
type Template interface {
	Generate(cfg config.GeneratorConfig, specs []string) (string, error)
}

// TemplateFunc adapts an ordinary function to the Template interface.
type TemplateFunc func(cfg config.GeneratorConfig, specs []string) (string, error)

// Generate calls f.
func (f TemplateFunc) Generate(cfg config.GeneratorConfig, specs []string) (string, error) {
	return f(cfg, specs)
}

// Registry maps template names to templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates a registry holding the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{
		templates: make(map[string]Template),
	}

	r.Register(NameHALImplementation, HALImplementation{})
	r.Register(NameControlSystem, ControlSystem{})

	return r
}

// Register adds a template, replacing any template already registered
// under name.
func (r *Registry) Register(name string, t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = t
}

// Get returns the template registered under name.
func (r *Registry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
