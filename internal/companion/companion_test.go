package companion

import (
	"errors"
	"testing"

	"github.com/psychopy/liaison/internal/registry"
	"github.com/psychopy/liaison/internal/testutil/testlog"
)

func newTestCompanion(t *testing.T) *Companion {
	t.Helper()
	reg := registry.New()
	if err := registry.RegisterBuiltins(reg); err != nil {
		t.Fatalf("builtins: %v", err)
	}
	err := reg.Register("host.probe", map[string]any{
		"make":    newCtorProbe,
		"fail":    func() error { return errors.New("deliberate") },
		"version": "1.0",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return New(reg)
}

func TestStoreGetRoundTrip(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	name, err := c.Store("score", 12.5)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if name != "score" {
		t.Fatalf("expected stored name echoed, got %q", name)
	}

	got, err := c.Get("score")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
}

func TestStoreSubstitutesValue(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if _, err := c.Store("base", "hello"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := c.Store("copy", "$base"); err != nil {
		t.Fatalf("store copy: %v", err)
	}

	got, err := c.Get("copy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected dereferenced value, got %v", got)
	}
}

func TestInitStoresConstructedObject(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	name, err := c.Init("obj", "host.probe.make", []any{"hi"}, map[string]any{"color": "blue"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if name != "obj" {
		t.Fatalf("expected name echoed, got %q", name)
	}

	got, err := c.Get("obj.greeting")
	if err != nil {
		t.Fatalf("get attr: %v", err)
	}
	if got != "hi" {
		t.Fatalf("expected hi, got %v", got)
	}
	extra, err := c.Get(`obj.extras["color"]`)
	if err != nil {
		t.Fatalf("get kwarg field: %v", err)
	}
	if extra != "blue" {
		t.Fatalf("expected blue, got %v", extra)
	}
}

func TestRunPropagatesCallFailure(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if _, err := c.Run("host.probe.fail", nil, nil); !errors.Is(err, ErrCall) {
		t.Fatalf("expected ErrCall, got %v", err)
	}
	if _, err := c.Run("host.probe.absent", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTryCapturesCallFailure(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	out, err := c.Try("host.probe.fail", nil, nil)
	if err != nil {
		t.Fatalf("try must not propagate call failures: %v", err)
	}
	if out["success"] != false {
		t.Fatalf("expected success=false, got %v", out)
	}

	// only resolving fcn itself may fail
	if _, err := c.Try("host.probe.absent", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterAliasesResolvedValue(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if _, err := c.Register("v", "host.probe.version"); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := c.Get("v")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "1.0" {
		t.Fatalf("expected 1.0, got %v", got)
	}

	if _, err := c.Register("v2", "host.probe.absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsAndPing(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if !c.Exists("strings.upper") {
		t.Fatal("expected builtin symbol to exist")
	}
	if c.Exists("strings.shout") {
		t.Fatal("expected missing symbol to not exist")
	}
	if c.Ping() != "pong" {
		t.Fatal("expected pong")
	}
}

func TestCompanionSelfReference(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	got, err := c.Get("companion")
	if err != nil {
		t.Fatalf("get companion: %v", err)
	}
	if got != any(c) {
		t.Fatal("expected namespace to hold the companion itself")
	}

	// calling through the self reference works like any other path
	out, err := c.Run("companion.ping", nil, nil)
	if err != nil {
		t.Fatalf("run companion.ping: %v", err)
	}
	if out != "pong" {
		t.Fatalf("expected pong, got %v", out)
	}

	ns := c.Namespace()
	if ns.Len() != 1 {
		t.Fatalf("expected the self entry only, got %v", ns.Names())
	}
	if names := ns.Names(); names[0] != "companion" {
		t.Fatalf("unexpected namespace entries %v", names)
	}
}

func TestDispatchBindsArguments(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)

	// positional binding
	if _, err := c.Dispatch("store", []any{"x", 1.0}, nil); err != nil {
		t.Fatalf("dispatch store: %v", err)
	}
	out, err := c.Dispatch("get", []any{"x"}, nil)
	if err != nil {
		t.Fatalf("dispatch get: %v", err)
	}
	if out != 1.0 {
		t.Fatalf("expected 1.0, got %v", out)
	}

	// keyword binding
	out, err = c.Dispatch("get", nil, map[string]any{"target": "x"})
	if err != nil {
		t.Fatalf("dispatch get by keyword: %v", err)
	}
	if out != 1.0 {
		t.Fatalf("expected 1.0, got %v", out)
	}

	// positional remainder flows into the invocation
	out, err = c.Dispatch("run", []any{"strings.trim", "  go  "}, nil)
	if err != nil {
		t.Fatalf("dispatch run: %v", err)
	}
	if out != "go" {
		t.Fatalf("expected trimmed remainder arg, got %v", out)
	}
}

func TestDispatchValidatesArguments(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if _, err := c.Dispatch("get", nil, nil); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument for missing target, got %v", err)
	}
	if _, err := c.Dispatch("get", []any{7.0}, nil); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument for non-string target, got %v", err)
	}
	if _, err := c.Dispatch("store", []any{"only-name"}, nil); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument for missing value, got %v", err)
	}

	// a parameter given both positionally and by keyword is ambiguous
	if _, err := c.Dispatch("run", []any{"strings.upper"}, map[string]any{"fcn": "strings.lower"}); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument for duplicate fcn binding, got %v", err)
	}
	if _, err := c.Dispatch("register", []any{"v"}, map[string]any{"name": "w", "target": "strings.upper"}); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument for duplicate name binding, got %v", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	testlog.Start(t)

	c := newTestCompanion(t)
	if _, err := c.Dispatch("shutdown", nil, nil); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
