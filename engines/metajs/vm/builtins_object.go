package vm

import (
	"fmt"
	"strings"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

func (m *Machine) setupObject() {
	proto := m.intr.objectProto
	ctor := m.constructor("Object", 1, proto, func(c *Call) (Value, error) {
		if isNullish(c.Arg(0)) {
			return m.newPlainObject(), nil
		}
		return m.toObject(c.Arg(0))
	}, nil)

	m.function(ctor, "keys", 1, func(c *Call) (Value, error) {
		o, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		keys := o.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return m.newArray(out), nil
	})
	m.function(ctor, "values", 1, func(c *Call) (Value, error) {
		o, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, k := range o.Keys() {
			v, err := m.getProp(o, k, o)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return m.newArray(out), nil
	})
	m.function(ctor, "entries", 1, func(c *Call) (Value, error) {
		o, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, k := range o.Keys() {
			v, err := m.getProp(o, k, o)
			if err != nil {
				return nil, err
			}
			out = append(out, m.newArray([]Value{String(k), v}))
		}
		return m.newArray(out), nil
	})
	m.function(ctor, "create", 2, func(c *Call) (Value, error) {
		var proto *Object
		switch p := c.Arg(0).(type) {
		case *Object:
			proto = p
		default:
			if p != Null {
				return nil, m.throwf(ErrType, "Object prototype may only be an Object or null: %s", Inspect(p))
			}
		}
		obj := newObject(proto)
		if props, ok := c.Arg(1).(*Object); ok {
			if err := m.defineProperties(obj, props); err != nil {
				return nil, err
			}
		}
		return obj, nil
	})
	m.function(ctor, "getPrototypeOf", 1, func(c *Call) (Value, error) {
		o, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		if o.proto == nil {
			return Null, nil
		}
		return o.proto, nil
	})
	m.function(ctor, "setPrototypeOf", 2, func(c *Call) (Value, error) {
		o, ok := c.Arg(0).(*Object)
		if !ok {
			return c.Arg(0), nil
		}
		switch p := c.Arg(1).(type) {
		case *Object:
			for cur := p; cur != nil; cur = cur.proto {
				if cur == o {
					return nil, m.throwf(ErrType, "Cyclic __proto__ value")
				}
			}
			o.proto = p
		default:
			if p != Null {
				return nil, m.throwf(ErrType, "Object prototype may only be an Object or null: %s", Inspect(p))
			}
			o.proto = nil
		}
		return o, nil
	})
	m.function(ctor, "defineProperty", 3, func(c *Call) (Value, error) {
		o, ok := c.Arg(0).(*Object)
		if !ok {
			return nil, m.throwf(ErrType, "Object.defineProperty called on non-object")
		}
		key, err := m.toPropertyKey(c.Arg(1))
		if err != nil {
			return nil, err
		}
		if err := m.defineFromDescriptor(o, key, c.Arg(2)); err != nil {
			return nil, err
		}
		return o, nil
	})
	m.function(ctor, "defineProperties", 2, func(c *Call) (Value, error) {
		o, ok := c.Arg(0).(*Object)
		if !ok {
			return nil, m.throwf(ErrType, "Object.defineProperties called on non-object")
		}
		props, err := m.toObject(c.Arg(1))
		if err != nil {
			return nil, err
		}
		return o, m.defineProperties(o, props)
	})
	m.function(ctor, "getOwnPropertyNames", 1, func(c *Call) (Value, error) {
		o, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		keys := o.ownKeys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return m.newArray(out), nil
	})
	m.function(ctor, "assign", 2, func(c *Call) (Value, error) {
		target, err := m.toObject(c.Arg(0))
		if err != nil {
			return nil, err
		}
		for _, src := range c.Args[min(1, len(c.Args)):] {
			if isNullish(src) {
				continue
			}
			from, err := m.toObject(src)
			if err != nil {
				return nil, err
			}
			for _, k := range from.Keys() {
				v, err := m.getProp(from, k, from)
				if err != nil {
					return nil, err
				}
				if err := m.setProp(target, k, v, target); err != nil {
					return nil, err
				}
			}
		}
		return target, nil
	})

	m.function(proto, "hasOwnProperty", 1, func(c *Call) (Value, error) {
		key, err := m.toPropertyKey(c.Arg(0))
		if err != nil {
			return nil, err
		}
		o, err := m.thisObject(c, "Object.prototype.hasOwnProperty")
		if err != nil {
			return nil, err
		}
		return Bool(o.hasOwn(key)), nil
	})
	m.function(proto, "isPrototypeOf", 1, func(c *Call) (Value, error) {
		v, ok := c.Arg(0).(*Object)
		if !ok {
			return Bool(false), nil
		}
		o, err := m.thisObject(c, "Object.prototype.isPrototypeOf")
		if err != nil {
			return nil, err
		}
		for cur := v.proto; cur != nil; cur = cur.proto {
			if cur == o {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	m.function(proto, "propertyIsEnumerable", 1, func(c *Call) (Value, error) {
		key, err := m.toPropertyKey(c.Arg(0))
		if err != nil {
			return nil, err
		}
		o, err := m.thisObject(c, "Object.prototype.propertyIsEnumerable")
		if err != nil {
			return nil, err
		}
		p, ok := o.getOwnProperty(key)
		return Bool(ok && p.enumerable), nil
	})
	m.function(proto, "toString", 0, func(c *Call) (Value, error) {
		switch {
		case c.This == Undefined:
			return String("[object Undefined]"), nil
		case c.This == Null:
			return String("[object Null]"), nil
		}
		o, err := m.toObject(c.This)
		if err != nil {
			return nil, err
		}
		class := o.class
		if class == "global" {
			class = "Object"
		}
		return String("[object " + class + "]"), nil
	})
	m.function(proto, "toLocaleString", 0, func(c *Call) (Value, error) {
		fn, err := m.getV(c.This, "toString")
		if err != nil {
			return nil, err
		}
		return m.callSync(fn, c.This, nil)
	})
	m.function(proto, "valueOf", 0, func(c *Call) (Value, error) {
		return m.thisObject(c, "Object.prototype.valueOf")
	})
}

func (m *Machine) defineProperties(o, props *Object) error {
	for _, key := range props.Keys() {
		desc, err := m.getProp(props, key, props)
		if err != nil {
			return err
		}
		if err := m.defineFromDescriptor(o, key, desc); err != nil {
			return err
		}
	}
	return nil
}

// defineFromDescriptor applies a property descriptor object to o[key].
func (m *Machine) defineFromDescriptor(o *Object, key string, descValue Value) error {
	desc, ok := descValue.(*Object)
	if !ok {
		return m.throwf(ErrType, "Property description must be an object: %s", Inspect(descValue))
	}
	field := func(name string) (Value, bool, error) {
		if !desc.hasProperty(name) {
			return nil, false, nil
		}
		v, err := m.getProp(desc, name, desc)
		return v, true, err
	}

	p := &property{}
	existing, exists := o.getOwnProperty(key)
	if exists {
		if !existing.configurable {
			return m.throwf(ErrType, "Cannot redefine property: %s", key)
		}
		cp := *existing
		p = &cp
	} else if !o.extensible {
		return m.throwf(ErrType, "Cannot define property %s, object is not extensible", key)
	}

	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"enumerable", &p.enumerable},
		{"configurable", &p.configurable},
		{"writable", &p.writable},
	} {
		v, has, err := field(flag.name)
		if err != nil {
			return err
		}
		if has {
			*flag.dst = ToBoolean(v)
		}
	}

	getter, hasGet, err := field("get")
	if err != nil {
		return err
	}
	setter, hasSet, err := field("set")
	if err != nil {
		return err
	}
	value, hasValue, err := field("value")
	if err != nil {
		return err
	}
	if (hasGet || hasSet) && (hasValue || desc.hasProperty("writable")) {
		return m.throwf(ErrType, "Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}

	switch {
	case hasGet || hasSet:
		p.accessor = true
		p.value = nil
		p.writable = false
		if hasGet {
			p.getter, err = m.accessorFunc(getter, "Getter")
			if err != nil {
				return err
			}
		}
		if hasSet {
			p.setter, err = m.accessorFunc(setter, "Setter")
			if err != nil {
				return err
			}
		}
	case hasValue:
		p.accessor = false
		p.getter, p.setter = nil, nil
		p.value = value
	}
	if !p.accessor && p.value == nil {
		p.value = Undefined
	}

	if o.isArray && key == "length" {
		return o.setLength(p.value)
	}
	if o.isArray {
		if i, ok := arrayIndex(key); ok && !p.accessor && p.writable && p.enumerable && p.configurable {
			if i-len(o.array) >= maxArrayGrowth {
				return m.throwf(ErrRange, "Invalid array index")
			}
			o.setIndex(i, p.value)
			return nil
		}
		if _, ok := arrayIndex(key); ok {
			return m.throwf(ErrType, "Cannot define a non-default attribute on array element %s", key)
		}
	}
	o.defineOwn(key, p)
	return nil
}

func (m *Machine) accessorFunc(v Value, kind string) (*Object, error) {
	if v == Undefined {
		return nil, nil
	}
	fn, ok := v.(*Object)
	if !ok || !fn.Callable() {
		return nil, m.throwf(ErrType, "%s must be a function: %s", kind, Inspect(v))
	}
	return fn, nil
}

func (m *Machine) setupFunction() {
	proto := m.intr.functionProto
	proto.defineOwn("length", &property{value: Number(0), configurable: true})
	proto.defineOwn("name", &property{value: emptyStr, configurable: true})

	m.constructor("Function", 1, proto, m.functionFromSource, nil)

	m.function(proto, "call", 1, func(c *Call) (Value, error) {
		var args []Value
		if len(c.Args) > 1 {
			args = c.Args[1:]
		}
		return m.callSync(c.This, c.Arg(0), args)
	})
	m.function(proto, "apply", 2, func(c *Call) (Value, error) {
		var args []Value
		if list, ok := c.Arg(1).(*Object); ok {
			var err error
			if args, err = m.toList(list); err != nil {
				return nil, err
			}
		} else if !isNullish(c.Arg(1)) {
			return nil, m.throwf(ErrType, "CreateListFromArrayLike called on non-object")
		}
		return m.callSync(c.This, c.Arg(0), args)
	})
	m.function(proto, "bind", 1, func(c *Call) (Value, error) {
		target, err := m.callable(c.This)
		if err != nil {
			return nil, err
		}
		var args []Value
		if len(c.Args) > 1 {
			args = append(args, c.Args[1:]...)
		}
		bound := newObject(m.intr.functionProto)
		bound.class = "Function"
		bound.bound = &boundFunction{target: target, this: c.Arg(0), args: args}
		name, _ := lookupData(target, "name")
		length, _ := lookupData(target, "length")
		n, _ := length.(Number)
		bound.defineOwn("length", &property{value: Number(max(0, int(n)-len(args))), configurable: true})
		bound.defineOwn("name", &property{value: String("bound " + ToString(orUndefined(name))), configurable: true})
		return bound, nil
	})
	m.function(proto, "toString", 0, func(c *Call) (Value, error) {
		fn, ok := c.This.(*Object)
		if !ok || !fn.Callable() {
			return nil, m.throwf(ErrType, "Function.prototype.toString requires that 'this' be a Function")
		}
		if fn.closure != nil {
			return String(fn.closure.Source()), nil
		}
		name, _ := lookupData(fn, "name")
		if fn.bound != nil {
			name = emptyStr
		}
		return String(fmt.Sprintf("function %s() { [native code] }", ToString(orUndefined(name)))), nil
	})
}

// functionFromSource implements the Function constructor by parsing a function
// expression in the global scope.
func (m *Machine) functionFromSource(c *Call) (Value, error) {
	if m.parse == nil {
		return nil, ErrNoParser
	}
	params := make([]string, 0, len(c.Args))
	body := ""
	for i, a := range c.Args {
		s, err := m.toString(a)
		if err != nil {
			return nil, err
		}
		if i == len(c.Args)-1 {
			body = s
			continue
		}
		params = append(params, s)
	}
	src := "(function anonymous(" + strings.Join(params, ",") + "\n) {\n" + body + "\n})"
	program, err := m.parse(src)
	if err != nil {
		return nil, m.throwf(ErrSyntax, "%s", err.Error())
	}
	ast.AttachSource(program, src)
	res, err := m.runToCompletion(func(k Continuation) { m.evaluate(program, newScope(BlockScope, m.root), k) })
	if err != nil {
		return nil, err
	}
	return m.completionValue(res)
}
