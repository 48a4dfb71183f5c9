package companion

import (
	"fmt"
	"strings"

	"github.com/psychopy/liaison/internal/registry"
)

// Resolver resolves dotted/bracketed paths to live values. The path root is
// looked up in the Namespace first, then in the registry module space.
// Resolution is read-only: it never mutates state and never invokes
// callables.
type Resolver struct {
	ns  *Namespace
	reg *registry.Registry
}

// NewResolver binds a resolver to one namespace and one registry.
func NewResolver(ns *Namespace, reg *registry.Registry) *Resolver {
	return &Resolver{ns: ns, reg: reg}
}

// Resolve walks path and returns the value it designates. Fails with a
// wrapped ErrNotFound naming the failing step and the prefix resolved so
// far.
func (r *Resolver) Resolve(path string) (any, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	value, consumed, err := r.resolveRoot(path, steps)
	if err != nil {
		return nil, err
	}

	prefix := joinSteps(steps[:consumed])
	for _, st := range steps[consumed:] {
		next, err := applyStep(value, st)
		if err != nil {
			return nil, fmt.Errorf("%w (step %q after %q in %q)", err, st, prefix, path)
		}
		value = next
		prefix = prefix + sep(st) + st.String()
	}
	return value, nil
}

// Exists is Resolve with failure mapped to false. It never errors and has
// no observable side effects.
func (r *Resolver) Exists(path string) bool {
	_, err := r.Resolve(path)
	return err == nil
}

// resolveRoot binds the leading steps of a path. A namespace name always
// shadows a registry module; on namespace miss the longest dotted run of
// leading attribute steps matching a registered module wins, so paths like
// `host.metrics.gauge` can reach a module registered as "host.metrics".
func (r *Resolver) resolveRoot(path string, steps []step) (any, int, error) {
	root := steps[0]
	if root.kind != stepAttr {
		return nil, 0, fmt.Errorf("%w: path %q must start with a name", ErrNotFound, path)
	}
	if v, ok := r.ns.Load(root.name); ok {
		return v, 1, nil
	}

	run := leadingAttrRun(steps)
	for l := len(run); l >= 1; l-- {
		if table, ok := r.reg.Lookup(strings.Join(run[:l], ".")); ok {
			return table, l, nil
		}
	}
	return nil, 0, fmt.Errorf(
		"%w: %q is neither a namespace entry nor a registered module (path %q)",
		ErrNotFound, root.name, path,
	)
}

func leadingAttrRun(steps []step) []string {
	var run []string
	for _, st := range steps {
		if st.kind != stepAttr {
			break
		}
		run = append(run, st.name)
	}
	return run
}

func joinSteps(steps []step) string {
	var b strings.Builder
	for i, st := range steps {
		if i > 0 {
			b.WriteString(sep(st))
		}
		b.WriteString(st.String())
	}
	return b.String()
}

func sep(st step) string {
	if st.kind == stepAttr {
		return "."
	}
	return ""
}
