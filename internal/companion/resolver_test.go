package companion

import (
	"errors"
	"testing"

	"github.com/psychopy/liaison/internal/registry"
	"github.com/psychopy/liaison/internal/testutil/testlog"
)

type probe struct {
	Label string
	Count int
	Items []string
	calls int
}

func (p *probe) Bump() int {
	p.calls++
	return p.calls
}

func newTestResolver(t *testing.T) (*Namespace, *Resolver) {
	t.Helper()
	ns := NewNamespace()
	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		t.Fatalf("builtins: %v", err)
	}
	if err := reg.Register("host.info", map[string]any{"version": "1.2.0"}); err != nil {
		t.Fatalf("register host.info: %v", err)
	}
	return ns, NewResolver(ns, reg)
}

func TestResolveNestedMaps(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("a", map[string]any{"b": map[string]any{"c": 5}})

	got, err := res.Resolve("a.b.c")
	if err != nil {
		t.Fatalf("resolve a.b.c: %v", err)
	}
	if got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestResolveMissingRootFailsNotFound(t *testing.T) {
	testlog.Start(t)

	_, res := newTestResolver(t)
	if _, err := res.Resolve("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveMissingStepNamesPath(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("a", map[string]any{"b": 1})

	_, err := res.Resolve("a.missing.deep")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveBracketsAndIndexes(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("data", map[string]any{
		"rows": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
	})

	got, err := res.Resolve(`data.rows[1].name`)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected second, got %v", got)
	}

	got, err = res.Resolve(`data["rows"][-1].name`)
	if err != nil {
		t.Fatalf("resolve negative index: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected second via negative index, got %v", got)
	}

	if _, err := res.Resolve("data.rows[5]"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for out-of-range index, got %v", err)
	}
}

func TestResolveStructFieldsAndMethods(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("p", &probe{Label: "x", Count: 7, Items: []string{"a", "b"}})

	if got, err := res.Resolve("p.label"); err != nil || got != "x" {
		t.Fatalf("field via lowercase name: got=%v err=%v", got, err)
	}
	if got, err := res.Resolve("p.Count"); err != nil || got != 7 {
		t.Fatalf("field via exact name: got=%v err=%v", got, err)
	}
	if got, err := res.Resolve("p.items[0]"); err != nil || got != "a" {
		t.Fatalf("indexed field: got=%v err=%v", got, err)
	}

	// method resolution yields the bound method without calling it
	v, err := res.Resolve("p.bump")
	if err != nil {
		t.Fatalf("resolve method: %v", err)
	}
	if _, ok := v.(func() int); !ok {
		t.Fatalf("expected bound method func, got %T", v)
	}
}

type inner struct {
	Tag string
}

type outer struct {
	*inner
}

func TestResolvePromotedFieldBehindNilPointer(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("w", outer{})

	if _, err := res.Resolve("w.Tag"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for nil embedded pointer, got %v", err)
	}

	ns.Store("w", outer{inner: &inner{Tag: "set"}})
	got, err := res.Resolve("w.Tag")
	if err != nil || got != "set" {
		t.Fatalf("promoted field: got=%v err=%v", got, err)
	}
}

func TestResolveModuleSpace(t *testing.T) {
	testlog.Start(t)

	_, res := newTestResolver(t)

	if _, err := res.Resolve("strings.upper"); err != nil {
		t.Fatalf("resolve strings.upper: %v", err)
	}
	// dotted module names resolve by longest prefix
	if got, err := res.Resolve("host.info.version"); err != nil || got != "1.2.0" {
		t.Fatalf("dotted module: got=%v err=%v", got, err)
	}
}

func TestNamespaceShadowsModuleSpace(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	ns.Store("strings", map[string]any{"upper": "shadowed"})

	got, err := res.Resolve("strings.upper")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "shadowed" {
		t.Fatalf("namespace must shadow module space, got %v", got)
	}
}

func TestExistsNeverFails(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	if res.Exists("totally.missing.path") {
		t.Fatalf("expected false for missing path")
	}
	if res.Exists("[0]bad") {
		t.Fatalf("expected false for malformed path")
	}

	ns.Store("x", 1)
	if !res.Exists("x") {
		t.Fatalf("expected true for stored name")
	}
}

func TestExistsHasNoSideEffects(t *testing.T) {
	testlog.Start(t)

	ns, res := newTestResolver(t)
	p := &probe{}
	ns.Store("p", p)

	if !res.Exists("p.bump") {
		t.Fatalf("expected method path to exist")
	}
	if p.calls != 0 {
		t.Fatalf("exists must not invoke callables, calls=%d", p.calls)
	}
}
