package companion

import (
	"fmt"

	"github.com/psychopy/liaison/internal/registry"
)

// Companion exposes the public command set over one Namespace. One
// Companion exists per connection; it is never shared.
type Companion struct {
	ns  *Namespace
	res *Resolver
	inv *Invoker
}

// New creates a Companion with an empty namespace backed by reg. The
// namespace is seeded with a self reference under "companion".
func New(reg *registry.Registry) *Companion {
	ns := NewNamespace()
	res := NewResolver(ns, reg)
	c := &Companion{
		ns:  ns,
		res: res,
		inv: NewInvoker(res),
	}
	ns.Store("companion", c)
	return c
}

// Namespace returns the mutable per-session namespace.
func (c *Companion) Namespace() *Namespace {
	return c.ns
}

// Get resolves target and returns the value it designates.
func (c *Companion) Get(target string) (any, error) {
	return c.res.Resolve(target)
}

// Exists reports whether target resolves. It never fails.
func (c *Companion) Exists(target string) bool {
	return c.res.Exists(target)
}

// Init resolves cls, invokes it as a constructor, and stores the result
// under name. Returns name.
func (c *Companion) Init(name, cls string, args []any, kwargs map[string]any) (string, error) {
	ctor, err := c.res.Resolve(cls)
	if err != nil {
		return "", err
	}
	obj, err := c.inv.Invoke(ctor, args, kwargs)
	if err != nil {
		return "", err
	}
	c.ns.Store(name, obj)
	return name, nil
}

// Run resolves fcn and invokes it, propagating any failure to the caller.
func (c *Companion) Run(fcn string, args []any, kwargs map[string]any) (any, error) {
	callable, err := c.res.Resolve(fcn)
	if err != nil {
		return nil, err
	}
	return c.inv.Invoke(callable, args, kwargs)
}

// Try resolves fcn and invokes it guarded: call failures come back as a
// tagged {success, result} value. Only a failure to resolve fcn itself
// propagates.
func (c *Companion) Try(fcn string, args []any, kwargs map[string]any) (map[string]any, error) {
	callable, err := c.res.Resolve(fcn)
	if err != nil {
		return nil, err
	}
	return c.inv.InvokeGuarded(callable, args, kwargs), nil
}

// Register resolves target and stores the resolved value itself (no copy,
// no call) under name. Returns name.
func (c *Companion) Register(name, target string) (string, error) {
	v, err := c.res.Resolve(target)
	if err != nil {
		return "", err
	}
	c.ns.Store(name, v)
	return name, nil
}

// Store stores value under name after argument-reference substitution.
// The name itself is never resolved. Returns name.
func (c *Companion) Store(name string, value any) (string, error) {
	v, err := c.inv.Substitute(value)
	if err != nil {
		return "", err
	}
	c.ns.Store(name, v)
	return name, nil
}

// Ping returns the literal "pong".
func (c *Companion) Ping() string {
	return "pong"
}

// Dispatch routes one decoded command to its method. Command names match
// case-sensitively; arguments bind positionally in each method's parameter
// order, with keyword arguments overriding or extending. For init, run, and
// try the leading positional arguments bind the name/path parameters and
// the remainder flow through to the invocation.
func (c *Companion) Dispatch(name string, args []any, kwargs map[string]any) (any, error) {
	switch name {
	case "get":
		target, _, _, err := bindPath("target", args, kwargs)
		if err != nil {
			return nil, err
		}
		return c.Get(target)
	case "exists":
		target, _, _, err := bindPath("target", args, kwargs)
		if err != nil {
			return nil, err
		}
		return c.Exists(target), nil
	case "init":
		objName, rest, kw, err := bindName("name", args, kwargs)
		if err != nil {
			return nil, err
		}
		cls, rest, kw, err := bindPath("cls", rest, kw)
		if err != nil {
			return nil, err
		}
		return c.Init(objName, cls, rest, kw)
	case "run":
		fcn, rest, kw, err := bindPath("fcn", args, kwargs)
		if err != nil {
			return nil, err
		}
		return c.Run(fcn, rest, kw)
	case "try":
		fcn, rest, kw, err := bindPath("fcn", args, kwargs)
		if err != nil {
			return nil, err
		}
		return c.Try(fcn, rest, kw)
	case "register":
		regName, rest, kw, err := bindName("name", args, kwargs)
		if err != nil {
			return nil, err
		}
		target, _, _, err := bindPath("target", rest, kw)
		if err != nil {
			return nil, err
		}
		return c.Register(regName, target)
	case "store":
		storeName, rest, kw, err := bindName("name", args, kwargs)
		if err != nil {
			return nil, err
		}
		value, ok := takeValue("value", rest, kw)
		if !ok {
			return nil, fmt.Errorf("%w: store requires a value", ErrBadArgument)
		}
		return c.Store(storeName, value)
	case "ping":
		return c.Ping(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// bindName consumes one string parameter, positionally or by keyword. A
// keyword binding with positional arguments still pending is rejected: the
// leading positional would have bound this parameter too, and silently
// letting it flow into the invocation would reorder the caller's arguments.
func bindName(param string, args []any, kwargs map[string]any) (string, []any, map[string]any, error) {
	if raw, ok := kwargs[param]; ok {
		if len(args) > 0 {
			return "", nil, nil, fmt.Errorf("%w: multiple values for %s", ErrBadArgument, param)
		}
		s, ok := raw.(string)
		if !ok {
			return "", nil, nil, fmt.Errorf("%w: %s must be a string, got %T", ErrBadArgument, param, raw)
		}
		return s, args, without(kwargs, param), nil
	}
	if len(args) == 0 {
		return "", nil, nil, fmt.Errorf("%w: missing %s", ErrBadArgument, param)
	}
	s, ok := args[0].(string)
	if !ok {
		return "", nil, nil, fmt.Errorf("%w: %s must be a string, got %T", ErrBadArgument, param, args[0])
	}
	return s, args[1:], kwargs, nil
}

// bindPath is bindName for path-typed parameters; the distinction is only
// for error wording symmetry with the command table.
func bindPath(param string, args []any, kwargs map[string]any) (string, []any, map[string]any, error) {
	return bindName(param, args, kwargs)
}

func takeValue(param string, args []any, kwargs map[string]any) (any, bool) {
	if v, ok := kwargs[param]; ok {
		return v, true
	}
	if len(args) > 0 {
		return args[0], true
	}
	return nil, false
}

func without(kwargs map[string]any, key string) map[string]any {
	if _, ok := kwargs[key]; !ok {
		return kwargs
	}
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		if k != key {
			out[k] = v
		}
	}
	return out
}
