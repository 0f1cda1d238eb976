package vm

import "strconv"

// getProp reads key from o or its prototype chain. Getters run with receiver as this.
func (m *Machine) getProp(o *Object, key string, receiver Value) (Value, error) {
	for cur := o; cur != nil; cur = cur.proto {
		p, ok := cur.getOwnProperty(key)
		if !ok {
			continue
		}
		if !p.accessor {
			return orUndefined(p.value), nil
		}
		if p.getter == nil {
			return Undefined, nil
		}
		return m.callSync(p.getter, receiver, nil)
	}
	return Undefined, nil
}

// setProp writes key on o. An inherited setter is called; an inherited read-only
// property blocks the write; otherwise the value lands on o itself.
func (m *Machine) setProp(o *Object, key string, v Value, receiver Value) error {
	for cur := o; cur != nil; cur = cur.proto {
		p, ok := cur.getOwnProperty(key)
		if !ok {
			continue
		}
		if p.accessor {
			if p.setter == nil {
				return nil
			}
			_, err := m.callSync(p.setter, receiver, []Value{v})
			return err
		}
		if !p.writable {
			return nil
		}
		break
	}
	target, ok := receiver.(*Object)
	if !ok {
		return nil
	}
	return target.writeOwn(key, v)
}

// protoOf returns the object that supplies properties for a primitive.
func (m *Machine) protoOf(v Value) *Object {
	switch v.(type) {
	case String:
		return m.intr.stringProto
	case Number:
		return m.intr.numberProto
	case Bool:
		return m.intr.booleanProto
	}
	return nil
}

// getV reads a property of any value, looking up primitives on their prototypes.
func (m *Machine) getV(v Value, key string) (Value, error) {
	switch x := v.(type) {
	case *Object:
		return m.getProp(x, key, x)
	case String:
		runes := []rune(string(x))
		if key == "length" {
			return Number(len(runes)), nil
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(runes) {
				return String(runes[i]), nil
			}
			return Undefined, nil
		}
	}
	if isNullish(v) {
		return nil, m.throwf(ErrType, "Cannot read properties of %s (reading '%s')", nullishName(v), key)
	}
	return m.getProp(m.protoOf(v), key, v)
}

// putV writes a property of any value. Writes to primitives are discarded.
func (m *Machine) putV(base Value, key string, v Value) error {
	switch x := base.(type) {
	case *Object:
		return m.setProp(x, key, v, x)
	default:
		if isNullish(base) {
			return m.throwf(ErrType, "Cannot set properties of %s (setting '%s')", nullishName(base), key)
		}
		return nil
	}
}

func (m *Machine) newPlainObject() *Object {
	return newObject(m.intr.objectProto)
}

func (m *Machine) newArray(values []Value) *Object {
	obj := newObject(m.intr.arrayProto)
	obj.class = "Array"
	obj.isArray = true
	obj.array = values
	if obj.array == nil {
		obj.array = []Value{}
	}
	return obj
}

// box wraps a primitive in its object form.
func (m *Machine) box(v Value) *Object {
	obj := newObject(m.protoOf(v))
	switch v.(type) {
	case String:
		obj.class = "String"
	case Number:
		obj.class = "Number"
	case Bool:
		obj.class = "Boolean"
	}
	obj.primitive = v
	return obj
}

// copyDataProperties copies the enumerable own properties of src onto dst, skipping
// the keys in exclude. Nullish sources copy nothing.
func (m *Machine) copyDataProperties(dst *Object, src Value, exclude map[string]bool) error {
	if isNullish(src) {
		return nil
	}
	from, err := m.toObject(src)
	if err != nil {
		return err
	}
	for _, key := range from.ownKeys() {
		if exclude[key] {
			continue
		}
		p, ok := from.getOwnProperty(key)
		if !ok || !p.enumerable {
			continue
		}
		v, err := m.getProp(from, key, from)
		if err != nil {
			return err
		}
		dst.defineOwn(key, dataProperty(v))
	}
	return nil
}

// iterate collects the values produced by iterating v: array elements, string code
// points, arguments entries, and the enumerable values of plain objects.
func (m *Machine) iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case String:
		runes := []rune(string(x))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = String(r)
		}
		return out, nil
	case *Object:
		switch {
		case x.isArray:
			return x.Elements(), nil
		case x.class == "String":
			return m.iterate(x.primitive)
		case x.class == "Arguments":
			return m.toList(x)
		case x.Callable():
			return nil, m.throwf(ErrType, "%s is not iterable", Inspect(v))
		}
		var out []Value
		for _, key := range x.Keys() {
			item, err := m.getProp(x, key, x)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return nil, m.throwf(ErrType, "%s is not iterable", Inspect(v))
}

// toList reads an array-like object: its length property and indexed elements.
func (m *Machine) toList(o *Object) ([]Value, error) {
	if o.isArray {
		return o.Elements(), nil
	}
	lv, err := m.getProp(o, "length", o)
	if err != nil {
		return nil, err
	}
	n, err := m.toNumber(lv)
	if err != nil {
		return nil, err
	}
	size := toIntegerOrInfinity(float64(n))
	if size <= 0 {
		return nil, nil
	}
	if size > maxArrayGrowth {
		return nil, m.throwf(ErrRange, "Invalid array length")
	}
	out := make([]Value, int(size))
	for i := range out {
		if out[i], err = m.getProp(o, strconv.Itoa(i), o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// forInKeys lists the enumerable string keys of v and its prototypes. Shadowed keys
// appear once.
func (m *Machine) forInKeys(v Value) ([]Value, error) {
	obj, err := m.toObject(v)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []Value
	for cur := obj; cur != nil; cur = cur.proto {
		for _, key := range cur.ownKeys() {
			if seen[key] {
				continue
			}
			seen[key] = true
			if p, ok := cur.getOwnProperty(key); ok && p.enumerable {
				out = append(out, String(key))
			}
		}
	}
	return out, nil
}
