// Package internal converts between Go values and metajs machine values.
package internal

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/robbyt/go-metajs/engines/metajs/vm"
)

var (
	// ErrUnsupportedType is returned for Go values with no script representation.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrCycle is returned when a script value refers back to itself.
	ErrCycle = errors.New("cyclic value")
	// ErrFunction is returned when a function is converted at the top level.
	ErrFunction = errors.New("function values cannot be converted")
)

// HostFunc is a Go function scripts can call. Arguments and the result pass through
// the same conversions as ctx data.
type HostFunc func(args ...any) (any, error)

// ConvertToMetaJSGlobals wraps inputData as the single global ctxKey, so scripts read
// {"foo": "bar"} as ctx.foo.
func ConvertToMetaJSGlobals(m *vm.Machine, ctxKey string, inputData map[string]any) (map[string]vm.Value, error) {
	if inputData == nil {
		inputData = map[string]any{}
	}
	v, err := ConvertToValue(m, inputData)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", ctxKey, err)
	}
	return map[string]vm.Value{ctxKey: v}, nil
}

// ConvertToValue builds a machine value from a Go value. Maps with string keys become
// objects, slices and arrays become arrays, numbers become float64, times become ISO
// strings and errors become Error objects. A nil interface converts to null.
func ConvertToValue(m *vm.Machine, in any) (vm.Value, error) {
	switch v := in.(type) {
	case nil:
		return vm.Null, nil
	case vm.Value:
		return v, nil
	case bool:
		return vm.Bool(v), nil
	case string:
		return vm.String(v), nil
	case []byte:
		return vm.String(v), nil
	case float64:
		return vm.Number(v), nil
	case int:
		return vm.Number(v), nil
	case int64:
		return vm.Number(v), nil
	case time.Time:
		return vm.String(v.Format(time.RFC3339Nano)), nil
	case time.Duration:
		return vm.Number(v.Milliseconds()), nil
	case map[string]any:
		obj := m.NewObject()
		for _, k := range sortedKeys(v) {
			elem, err := ConvertToValue(m, v[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if err := m.Set(obj, k, elem); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case []any:
		return convertSlice(m, reflect.ValueOf(v))
	case HostFunc:
		return hostFunction(m, v), nil
	case func(args ...any) (any, error):
		return hostFunction(m, v), nil
	case vm.NativeFunc:
		return m.NewFunction("", 0, v), nil
	case error:
		return m.NewError("Error", v.Error()), nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return nil, err
		}
		return vm.String(text), nil
	case fmt.Stringer:
		return vm.String(v.String()), nil
	}
	return convertReflect(m, reflect.ValueOf(in))
}

func convertReflect(m *vm.Machine, rv reflect.Value) (vm.Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return vm.Null, nil
		}
		return ConvertToValue(m, rv.Elem().Interface())
	case reflect.Bool:
		return vm.Bool(rv.Bool()), nil
	case reflect.String:
		return vm.String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.Number(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return vm.Number(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return vm.Number(rv.Float()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return vm.Null, nil
		}
		return convertSlice(m, rv)
	case reflect.Array:
		return convertSlice(m, rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		if rv.IsNil() {
			return vm.Null, nil
		}
		obj := m.NewObject()
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
		for _, k := range keys {
			elem, err := ConvertToValue(m, rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k.String(), err)
			}
			if err := m.Set(obj, k.String(), elem); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case reflect.Struct:
		return convertStruct(m, rv)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

func convertSlice(m *vm.Machine, rv reflect.Value) (vm.Value, error) {
	out := make([]vm.Value, rv.Len())
	for i := range out {
		elem, err := ConvertToValue(m, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = elem
	}
	return m.NewArray(out...), nil
}

// convertStruct exposes exported fields, named by their json tag when present.
func convertStruct(m *vm.Machine, rv reflect.Value) (vm.Value, error) {
	obj := m.NewObject()
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty := fieldName(f)
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		elem, err := ConvertToValue(m, fv.Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := m.Set(obj, name, elem); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func fieldName(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, strings.Contains(opts, "omitempty")
}

func hostFunction(m *vm.Machine, fn HostFunc) *vm.Object {
	return m.NewFunction("", 0, func(c *vm.Call) (vm.Value, error) {
		args := make([]any, len(c.Args))
		for i, a := range c.Args {
			g, err := ConvertValueToInterface(a)
			if err != nil && !errors.Is(err, ErrFunction) {
				return nil, vm.ThrowValue(c.Machine().NewError("TypeError", err.Error()))
			}
			args[i] = g
		}
		out, err := fn(args...)
		if err != nil {
			return nil, vm.ThrowValue(c.Machine().NewError("Error", err.Error()))
		}
		return ConvertToValue(c.Machine(), out)
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConvertValueToInterface turns a machine value into plain Go data: nil, bool,
// float64, string, []any and map[string]any.
//
// Nested functions are dropped from objects and become nil in arrays, as
// JSON.stringify does; a function at the top level is an ErrFunction error. Boxed
// primitives unwrap, errors become maps with name and message, and regular
// expressions become their literal text.
func ConvertValueToInterface(v vm.Value) (any, error) {
	return toGo(v, map[*vm.Object]bool{}, true)
}

func toGo(v vm.Value, seen map[*vm.Object]bool, top bool) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case vm.Bool:
		return bool(x), nil
	case vm.Number:
		return float64(x), nil
	case vm.String:
		return string(x), nil
	case *vm.Object:
		return objectToGo(x, seen, top)
	}
	if v.Kind() == vm.KindUndefined || v.Kind() == vm.KindNull {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Kind())
}

func objectToGo(o *vm.Object, seen map[*vm.Object]bool, top bool) (any, error) {
	if o.Callable() {
		if top {
			return nil, ErrFunction
		}
		return nil, nil
	}
	if p, ok := o.Primitive(); ok {
		return toGo(p, seen, false)
	}
	switch o.Class() {
	case "RegExp":
		return vm.Inspect(o), nil
	case "Error":
		return errorToGo(o), nil
	}

	if seen[o] {
		return nil, ErrCycle
	}
	seen[o] = true
	defer delete(seen, o)

	if o.IsArray() {
		out := make([]any, 0, o.Len())
		for i, elem := range o.Elements() {
			g, err := toGo(elem, seen, false)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, g)
		}
		return out, nil
	}

	out := make(map[string]any)
	for _, k := range o.Keys() {
		elem, ok := o.Own(k)
		if !ok {
			continue
		}
		if eo, isObj := elem.(*vm.Object); isObj && eo.Callable() {
			continue
		}
		g, err := toGo(elem, seen, false)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = g
	}
	return out, nil
}

func errorToGo(o *vm.Object) map[string]any {
	out := map[string]any{"name": "Error", "message": ""}
	for p := o; p != nil; p = p.Prototype() {
		if name, ok := p.Own("name"); ok {
			out["name"] = vm.Inspect(name)
			break
		}
	}
	if msg, ok := o.Own("message"); ok {
		out["message"] = vm.Inspect(msg)
	}
	return out
}
