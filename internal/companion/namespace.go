package companion

import (
	"sort"
	"sync"
)

// Namespace is the mutable name->value mapping scoped to one Companion.
// It lives exactly as long as its Companion: created at session start,
// discarded at session end.
type Namespace struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

// Store upserts a value under name. Last write wins on collision.
func (n *Namespace) Store(name string, value any) {
	n.mu.Lock()
	n.values[name] = value
	n.mu.Unlock()
}

// Load returns the value stored under name.
func (n *Namespace) Load(name string) (any, bool) {
	n.mu.RLock()
	v, ok := n.values[name]
	n.mu.RUnlock()
	return v, ok
}

// Names returns deterministic name ordering.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	names := make([]string, 0, len(n.values))
	for name := range n.values {
		names = append(names, name)
	}
	n.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len reports the number of stored entries.
func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.values)
}
