package companion

import (
	"fmt"
	"reflect"
	"strings"
)

// applyStep folds one access step onto a resolved value. Capability probes
// run in a fixed order per step kind, independent of the concrete type:
// dotted steps try map key, struct field, then method; bracket steps try
// sequence index or map key.
func applyStep(v any, st step) (any, error) {
	switch st.kind {
	case stepAttr:
		return accessAttr(v, st.name)
	case stepKey:
		return accessKey(v, st.name)
	default:
		return accessIndex(v, st.index)
	}
}

func accessAttr(v any, name string) (any, error) {
	if table, ok := v.(map[string]any); ok {
		if sym, ok := table[name]; ok {
			return sym, nil
		}
		return nil, fmt.Errorf("%w: no key %q", ErrNotFound, name)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: attribute %q of nil", ErrNotFound, name)
	}

	orig := reflect.ValueOf(v)
	if m := methodByName(orig, name); m.IsValid() {
		return m.Interface(), nil
	}

	rv := deref(orig)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface(), nil
			}
		}
		return nil, fmt.Errorf("%w: no key %q", ErrNotFound, name)
	case reflect.Struct:
		if fv, ok := fieldByName(rv, name); ok {
			return fv.Interface(), nil
		}
		// pointer-receiver methods need an addressable value
		if rv.CanAddr() {
			if m := methodByName(rv.Addr(), name); m.IsValid() {
				return m.Interface(), nil
			}
		}
		return nil, fmt.Errorf("%w: no attribute %q on %s", ErrNotFound, name, rv.Type())
	default:
		return nil, fmt.Errorf("%w: no attribute %q on %s", ErrNotFound, name, rv.Type())
	}
}

func accessKey(v any, key string) (any, error) {
	if table, ok := v.(map[string]any); ok {
		if sym, ok := table[key]; ok {
			return sym, nil
		}
		return nil, fmt.Errorf("%w: no key %q", ErrNotFound, key)
	}
	rv := deref(reflect.ValueOf(v))
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if mv.IsValid() {
			return mv.Interface(), nil
		}
		return nil, fmt.Errorf("%w: no key %q", ErrNotFound, key)
	}
	return nil, fmt.Errorf("%w: value %T is not key-addressable", ErrNotFound, v)
}

func accessIndex(v any, idx int) (any, error) {
	rv := deref(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		n := rv.Len()
		i := idx
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: index %d out of range (len %d)", ErrNotFound, idx, n)
		}
		if rv.Kind() == reflect.String {
			return string([]rune(rv.String())[i]), nil
		}
		return rv.Index(i).Interface(), nil
	case reflect.Map:
		key := reflect.ValueOf(idx)
		if key.Type().ConvertibleTo(rv.Type().Key()) {
			mv := rv.MapIndex(key.Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface(), nil
			}
		}
		return nil, fmt.Errorf("%w: no key %d", ErrNotFound, idx)
	default:
		return nil, fmt.Errorf("%w: value %T is not indexable", ErrNotFound, v)
	}
}

func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

// methodByName matches exported methods, exact name first then
// case-insensitive, so wire paths can use lowercase method names.
func methodByName(rv reflect.Value, name string) reflect.Value {
	if !rv.IsValid() {
		return reflect.Value{}
	}
	if m := rv.MethodByName(name); m.IsValid() {
		return m
	}
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		if strings.EqualFold(t.Method(i).Name, name) {
			return rv.Method(i)
		}
	}
	return reflect.Value{}
}

func fieldByName(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		// a promoted field behind a nil embedded pointer is unreachable
		fv, err := rv.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return fv, true
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
