// Package flow registers and runs schema-validated generative flows.
//
// A flow is a named operation that validates its input, renders a prompt
// template, asks a model for structured output and returns that output only
// if it matches the flow's output schema.
package flow

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/medportal/medassist/internal/schema"
)

// Source indicates where a flow definition came from.
type Source string

const (
	SourceBuiltin   Source = "built-in"
	SourceInstalled Source = "installed" // shared data dir, e.g. ~/.local/share
	SourceUser      Source = "user"
	SourceProject   Source = "project"
)

// Definition describes a flow. It is not modified after registration.
type Definition struct {
	Name        string
	Description string
	Version     string
	Input       *schema.Schema
	Output      *schema.Schema
	Prompt      string // template with {{field}} placeholders
	Source      Source
	Path        string // directory of a discovered flow

	// Check runs after schema validation for rules a schema cannot express.
	// A failure is reported as InvalidInput.
	Check func(input map[string]any) error

	// Defaults fill prompt placeholders for optional fields the input omits.
	Defaults map[string]any
}

// Registry holds flow definitions keyed by name. It is populated at
// startup and read-only afterwards.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds def. Registering a name twice fails with
// ErrDuplicateFlowName.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("register flow: name is required")
	}
	if def.Input == nil || def.Output == nil {
		return fmt.Errorf("register flow %s: input and output schemas are required", def.Name)
	}
	if def.Source == "" {
		def.Source = SourceBuiltin
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return &Error{Kind: ErrDuplicateFlowName, Flow: def.Name}
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for definitions compiled into the binary.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(names))
	for _, n := range names {
		defs = append(defs, r.defs[n])
	}
	return defs
}
