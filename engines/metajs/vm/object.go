package vm

import (
	"fmt"
	"slices"
	"strconv"
)

// maxArrayGrowth bounds how far a single index write may extend an array.
const maxArrayGrowth = 1 << 24

type property struct {
	value        Value
	getter       *Object
	setter       *Object
	accessor     bool
	writable     bool
	enumerable   bool
	configurable bool
}

func dataProperty(v Value) *property {
	return &property{value: v, writable: true, enumerable: true, configurable: true}
}

func hiddenProperty(v Value) *property {
	return &property{value: v, writable: true, configurable: true}
}

// Object is a property bag with a prototype link. Arrays, functions, boxed primitives,
// regular expressions and arguments objects are Objects with extra internal state.
type Object struct {
	class      string
	proto      *Object
	props      map[string]*property
	keys       []string
	extensible bool

	isArray bool
	// array holds the indexed elements of an Array; nil entries are holes.
	array []Value

	native    NativeFunc
	construct NativeFunc
	closure   *Closure
	bound     *boundFunction

	primitive Value
	re        *regexpState
	args      *argumentsMap
}

func (*Object) Kind() Kind { return KindObject }

func newObject(proto *Object) *Object {
	return &Object{
		class:      "Object",
		proto:      proto,
		props:      map[string]*property{},
		extensible: true,
	}
}

// Class returns the internal class name, e.g. "Object", "Array", "Function".
func (o *Object) Class() string { return o.class }

// Prototype returns the object's prototype, or nil.
func (o *Object) Prototype() *Object { return o.proto }

// Callable reports whether the object can be invoked.
func (o *Object) Callable() bool {
	return o.native != nil || o.closure != nil || o.bound != nil
}

// IsArray reports whether the object is an Array.
func (o *Object) IsArray() bool { return o.isArray }

// Len returns the length of an Array, or zero for other objects.
func (o *Object) Len() int { return len(o.array) }

// Elements returns the Array elements with holes read as undefined.
func (o *Object) Elements() []Value {
	out := make([]Value, len(o.array))
	for i, v := range o.array {
		out[i] = orUndefined(v)
	}
	return out
}

// Primitive returns the value wrapped by a Boolean, Number or String object.
func (o *Object) Primitive() (Value, bool) {
	if o.primitive == nil {
		return nil, false
	}
	return o.primitive, true
}

// Own returns an own data property, ignoring accessors.
func (o *Object) Own(key string) (Value, bool) {
	p, ok := o.getOwnProperty(key)
	if !ok || p.accessor {
		return nil, false
	}
	return p.value, true
}

// Keys returns the enumerable own keys in property order.
func (o *Object) Keys() []string {
	var out []string
	for _, k := range o.ownKeys() {
		if p, ok := o.getOwnProperty(k); ok && p.enumerable {
			out = append(out, k)
		}
	}
	return out
}

func (o *Object) String() string {
	return fmt.Sprintf("[object %s]", o.class)
}

// arrayIndex parses a canonical array index key.
func arrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return int(n), true
}

func (o *Object) getOwnProperty(key string) (*property, bool) {
	switch {
	case o.isArray:
		if key == "length" {
			return &property{value: Number(len(o.array)), writable: true}, true
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(o.array) && o.array[i] != nil {
				return dataProperty(o.array[i]), true
			}
			return nil, false
		}
	case o.class == "String":
		runes := []rune(string(o.primitive.(String)))
		if key == "length" {
			return &property{value: Number(len(runes))}, true
		}
		if i, ok := arrayIndex(key); ok && i < len(runes) {
			return &property{value: String(runes[i]), enumerable: true}, true
		}
	case o.args != nil:
		if i, ok := arrayIndex(key); ok {
			if p, ok := o.props[key]; ok {
				if v, mapped := o.args.read(i); mapped {
					cp := *p
					cp.value = v
					return &cp, true
				}
			}
		}
	}
	p, ok := o.props[key]
	return p, ok
}

// defineOwn creates or replaces an own property without consulting prototypes or setters.
func (o *Object) defineOwn(key string, p *property) {
	if o.isArray && !p.accessor {
		if i, ok := arrayIndex(key); ok && i-len(o.array) < maxArrayGrowth {
			o.setIndex(i, p.value)
			return
		}
	}
	if o.args != nil {
		if i, ok := arrayIndex(key); ok {
			if p.accessor {
				o.args.unmap(i)
			} else {
				o.args.write(i, p.value)
			}
		}
	}
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = p
}

// set is a shorthand for defining a hidden data property, used when building intrinsics.
func (o *Object) set(key string, v Value) {
	o.defineOwn(key, hiddenProperty(v))
}

func (o *Object) setIndex(i int, v Value) {
	if i >= len(o.array) {
		o.array = append(o.array, make([]Value, i+1-len(o.array))...)
	}
	o.array[i] = v
}

// writeOwn stores v as an own data property, keeping the attributes of an existing one.
func (o *Object) writeOwn(key string, v Value) error {
	if o.isArray {
		if key == "length" {
			return o.setLength(v)
		}
		if i, ok := arrayIndex(key); ok {
			if i-len(o.array) >= maxArrayGrowth {
				return fmt.Errorf("%w: array index %d out of supported range", ErrRange, i)
			}
			o.setIndex(i, v)
			return nil
		}
	}
	if p, ok := o.props[key]; ok {
		p.value = v
		if o.args != nil {
			if i, ok := arrayIndex(key); ok {
				o.args.write(i, v)
			}
		}
		return nil
	}
	if !o.extensible {
		return nil
	}
	o.defineOwn(key, dataProperty(v))
	return nil
}

func (o *Object) setLength(v Value) error {
	n, ok := v.(Number)
	if !ok || n < 0 || float64(n) != float64(uint32(n)) {
		return fmt.Errorf("%w: invalid array length", ErrRange)
	}
	size := int(n)
	if size <= len(o.array) {
		o.array = o.array[:size]
		return nil
	}
	if size-len(o.array) >= maxArrayGrowth {
		return fmt.Errorf("%w: invalid array length", ErrRange)
	}
	o.array = append(o.array, make([]Value, size-len(o.array))...)
	return nil
}

// deleteOwn removes a configurable own property and reports whether the key is now absent.
func (o *Object) deleteOwn(key string) bool {
	if o.isArray {
		if key == "length" {
			return false
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(o.array) {
				o.array[i] = nil
			}
			return true
		}
	}
	if o.class == "String" {
		if p, ok := o.getOwnProperty(key); ok && !p.configurable {
			return false
		}
	}
	p, ok := o.props[key]
	if !ok {
		return true
	}
	if !p.configurable {
		return false
	}
	delete(o.props, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	if o.args != nil {
		if i, ok := arrayIndex(key); ok {
			o.args.unmap(i)
		}
	}
	return true
}

// ownKeys lists own keys: array indices ascending, then the remaining keys in insertion order.
func (o *Object) ownKeys() []string {
	var indexed []int
	var named []string
	if o.isArray {
		for i, v := range o.array {
			if v != nil {
				indexed = append(indexed, i)
			}
		}
	}
	if o.class == "String" {
		for i := range []rune(string(o.primitive.(String))) {
			indexed = append(indexed, i)
		}
	}
	for _, k := range o.keys {
		if i, ok := arrayIndex(k); ok {
			indexed = append(indexed, i)
			continue
		}
		named = append(named, k)
	}
	slices.Sort(indexed)
	out := make([]string, 0, len(indexed)+len(named)+1)
	for _, i := range indexed {
		out = append(out, strconv.Itoa(i))
	}
	if o.isArray || o.class == "String" {
		out = append(out, "length")
	}
	return append(out, named...)
}

func (o *Object) hasOwn(key string) bool {
	_, ok := o.getOwnProperty(key)
	return ok
}

func (o *Object) hasProperty(key string) bool {
	for cur := o; cur != nil; cur = cur.proto {
		if cur.hasOwn(key) {
			return true
		}
	}
	return false
}
