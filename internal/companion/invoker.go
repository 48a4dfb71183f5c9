package companion

import (
	"fmt"
	"reflect"
)

// Callable is the host-object invocation contract. Values stored in the
// namespace or registry that implement it receive both positional and
// keyword arguments directly; plain Go funcs are invoked through
// reflection instead.
type Callable interface {
	Call(args []any, kwargs map[string]any) (any, error)
}

// Invoker performs construction and invocation after substituting argument
// reference markers through the resolver.
type Invoker struct {
	res *Resolver
}

// NewInvoker binds an invoker to a resolver for argument substitution.
func NewInvoker(res *Resolver) *Invoker {
	return &Invoker{res: res}
}

// Invoke substitutes references in args and kwargs, then calls callable.
// Failures, including panics raised inside the callee, surface as a wrapped
// ErrCall; resolution failures during substitution keep their ErrNotFound
// identity.
func (inv *Invoker) Invoke(callable any, args []any, kwargs map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrCall, rec)
		}
	}()

	args, kwargs, err = inv.substituteAll(args, kwargs)
	if err != nil {
		return nil, err
	}

	if c, ok := callable.(Callable); ok {
		out, err := c.Call(args, kwargs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCall, err)
		}
		return out, nil
	}
	return callFunc(callable, args, kwargs)
}

// InvokeGuarded wraps Invoke so that any failure during substitution or
// invocation becomes a normal tagged return value instead of an error.
func (inv *Invoker) InvokeGuarded(callable any, args []any, kwargs map[string]any) map[string]any {
	out, err := inv.Invoke(callable, args, kwargs)
	if err != nil {
		return map[string]any{"success": false, "result": err.Error()}
	}
	return map[string]any{"success": true, "result": out}
}

// Substitute resolves a single argument reference marker, recursing into
// ordered sequences and keyed mappings so nested structures may embed
// references. Non-marker values pass through unchanged.
func (inv *Invoker) Substitute(v any) (any, error) {
	switch arg := v.(type) {
	case string:
		if path, ok := isReference(arg); ok {
			return inv.res.Resolve(path)
		}
		return arg, nil
	case []any:
		out := make([]any, len(arg))
		for i, elem := range arg {
			sub, err := inv.Substitute(elem)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(arg))
		for k, elem := range arg {
			sub, err := inv.Substitute(elem)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	default:
		return v, nil
	}
}

func (inv *Invoker) substituteAll(args []any, kwargs map[string]any) ([]any, map[string]any, error) {
	subArgs, err := inv.Substitute(args)
	if err != nil {
		return nil, nil, err
	}
	subKwargs, err := inv.Substitute(kwargs)
	if err != nil {
		return nil, nil, err
	}
	outArgs, _ := subArgs.([]any)
	outKwargs, _ := subKwargs.(map[string]any)
	return outArgs, outKwargs, nil
}

// callFunc invokes a plain Go func through reflection. Positional arguments
// are converted to the parameter types; keyword arguments are only
// supported when the final parameter is a map[string]any. The trailing
// error return, when present, is split off; multiple remaining returns
// collapse into a []any.
func callFunc(callable any, args []any, kwargs map[string]any) (any, error) {
	fv := reflect.ValueOf(callable)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T is not callable", ErrCall, callable)
	}
	ft := fv.Type()

	wantsKwargs := ft.NumIn() > 0 && !ft.IsVariadic() &&
		ft.In(ft.NumIn()-1) == reflect.TypeOf(map[string]any(nil))
	if len(kwargs) > 0 && !wantsKwargs {
		return nil, fmt.Errorf("%w: %s takes no keyword arguments", ErrCall, ft)
	}

	positional := ft.NumIn()
	if wantsKwargs {
		positional--
	}
	if ft.IsVariadic() {
		if len(args) < positional-1 {
			return nil, argCountError(ft, len(args))
		}
	} else if len(args) != positional {
		return nil, argCountError(ft, len(args))
	}

	in := make([]reflect.Value, 0, len(args)+1)
	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		cv, err := convertArg(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrCall, i, err)
		}
		in = append(in, cv)
	}
	if wantsKwargs {
		in = append(in, reflect.ValueOf(kwargs))
	}

	out := fv.Call(in)
	return collectReturns(ft, out)
}

func argCountError(ft reflect.Type, got int) error {
	return fmt.Errorf("%w: %s called with %d positional arguments", ErrCall, ft, got)
}

func collectReturns(ft reflect.Type, out []reflect.Value) (any, error) {
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errType {
		if errVal := out[n-1]; !errVal.IsNil() {
			return nil, fmt.Errorf("%w: %v", ErrCall, errVal.Interface().(error))
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = v.Interface()
		}
		return vals, nil
	}
}

// convertArg adapts a decoded JSON value to a parameter type. JSON numbers
// arrive as float64 and convert to any numeric kind when the value is
// representable; sequences and mappings convert elementwise.
func convertArg(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot pass nil as %s", pt)
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(pt) {
		return av, nil
	}

	switch pt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f, ok := arg.(float64); ok && f == float64(int64(f)) {
			return reflect.ValueOf(int64(f)).Convert(pt), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f, ok := arg.(float64); ok && f >= 0 && f == float64(uint64(f)) {
			return reflect.ValueOf(uint64(f)).Convert(pt), nil
		}
	case reflect.Float32, reflect.Float64:
		if f, ok := arg.(float64); ok {
			return reflect.ValueOf(f).Convert(pt), nil
		}
	case reflect.Slice:
		if list, ok := arg.([]any); ok {
			out := reflect.MakeSlice(pt, len(list), len(list))
			for i, elem := range list {
				ev, err := convertArg(elem, pt.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %v", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if m, ok := arg.(map[string]any); ok && pt.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(pt, len(m))
			for k, elem := range m {
				ev, err := convertArg(elem, pt.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q: %v", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(pt.Key()), ev)
			}
			return out, nil
		}
	}

	if av.Type().ConvertibleTo(pt) && av.Kind() == pt.Kind() {
		return av.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot pass %T as %s", arg, pt)
}
