// Package registry owns the process-wide symbol space.
//
// Ownership boundary:
// - module name -> symbol table mapping
//
// - the Resolver consults it when a path root is not in a Namespace
//
// The registry is the Go analog of the host's importable module space: code
// that wants its functions and values reachable over the wire registers them
// here under a module name before the first session opens.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrModuleExists = errors.New("registry: module already exists")
	ErrInvalidName  = errors.New("registry: invalid module name")
	ErrEmptySymbols = errors.New("registry: module has no symbols")
)

// Registry stores symbol tables by stable module name.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// New creates an empty symbol registry.
func New() *Registry {
	return &Registry{modules: make(map[string]map[string]any)}
}

// Register adds a module symbol table under name.
func (r *Registry) Register(name string, symbols map[string]any) error {
	name = strings.TrimSpace(name)
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptySymbols, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; ok {
		return fmt.Errorf("%w: %q", ErrModuleExists, name)
	}
	table := make(map[string]any, len(symbols))
	for k, v := range symbols {
		table[k] = v
	}
	r.modules[name] = table
	return nil
}

// Lookup returns a module symbol table by name.
func (r *Registry) Lookup(name string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.modules[name]
	return table, ok
}

// Names returns deterministic module ordering by name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var std = New()

// Default returns the process-wide registry consulted by new Companions.
func Default() *Registry {
	return std
}

// Register adds a module to the process-wide registry.
func Register(name string, symbols map[string]any) error {
	return std.Register(name, symbols)
}

// MustRegister panics on registration failure; intended for init-time wiring.
func MustRegister(name string, symbols map[string]any) {
	if err := std.Register(name, symbols); err != nil {
		panic(err)
	}
}

// Module names are dotted runs of lowercase identifier segments, matching
// the path grammar the Resolver splits on.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(name)-1 {
			if c == '.' {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
