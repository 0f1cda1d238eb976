package vm

import (
	"math"
	"slices"
	"strings"
)

func (m *Machine) setupArray() {
	proto := newObject(m.intr.objectProto)
	proto.class = "Array"
	proto.isArray = true
	proto.array = []Value{}
	m.intr.arrayProto = proto

	ctor := m.constructor("Array", 1, proto, m.arrayConstructor, nil)
	m.function(ctor, "isArray", 1, func(c *Call) (Value, error) {
		o, ok := c.Arg(0).(*Object)
		return Bool(ok && o.isArray), nil
	})
	m.function(ctor, "of", 0, func(c *Call) (Value, error) {
		return m.newArray(slices.Clone(c.Args)), nil
	})
	m.function(ctor, "from", 1, func(c *Call) (Value, error) {
		var items []Value
		var err error
		if o, ok := c.Arg(0).(*Object); ok && !o.isArray && o.class == "Object" {
			items, err = m.toList(o)
		} else {
			items, err = m.iterate(c.Arg(0))
		}
		if err != nil {
			return nil, err
		}
		if fn, ok := c.Arg(1).(*Object); ok {
			for i, v := range items {
				if items[i], err = m.callSync(fn, Undefined, []Value{v, Number(i)}); err != nil {
					return nil, err
				}
			}
		}
		return m.newArray(items), nil
	})

	m.function(proto, "push", 1, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "push")
		if err != nil {
			return nil, err
		}
		if len(a.array)+len(c.Args) > maxArrayGrowth {
			return nil, m.throwf(ErrRange, "Invalid array length")
		}
		a.array = append(a.array, c.Args...)
		return Number(len(a.array)), nil
	})
	m.function(proto, "pop", 0, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "pop")
		if err != nil || len(a.array) == 0 {
			return Undefined, err
		}
		last := a.array[len(a.array)-1]
		a.array = a.array[:len(a.array)-1]
		return orUndefined(last), nil
	})
	m.function(proto, "shift", 0, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "shift")
		if err != nil || len(a.array) == 0 {
			return Undefined, err
		}
		first := a.array[0]
		a.array = slices.Delete(a.array, 0, 1)
		return orUndefined(first), nil
	})
	m.function(proto, "unshift", 1, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "unshift")
		if err != nil {
			return nil, err
		}
		a.array = slices.Insert(a.array, 0, c.Args...)
		return Number(len(a.array)), nil
	})
	m.function(proto, "slice", 2, func(c *Call) (Value, error) {
		items, err := m.thisList(c, "slice")
		if err != nil {
			return nil, err
		}
		start, end, err := m.sliceBounds(c.Arg(0), c.Arg(1), len(items))
		if err != nil {
			return nil, err
		}
		if start >= end {
			return m.newArray(nil), nil
		}
		return m.newArray(slices.Clone(items[start:end])), nil
	})
	m.function(proto, "splice", 2, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "splice")
		if err != nil {
			return nil, err
		}
		size := len(a.array)
		start, err := m.relativeIndex(c.Arg(0), size, 0)
		if err != nil {
			return nil, err
		}
		count := size - start
		if len(c.Args) == 0 {
			count = 0
		} else if len(c.Args) > 1 {
			n, err := m.toNumber(c.Args[1])
			if err != nil {
				return nil, err
			}
			count = int(math.Max(0, math.Min(toIntegerOrInfinity(float64(n)), float64(size-start))))
		}
		removed := slices.Clone(a.array[start : start+count])
		var insert []Value
		if len(c.Args) > 2 {
			insert = c.Args[2:]
		}
		a.array = slices.Replace(a.array, start, start+count, insert...)
		for i, v := range removed {
			removed[i] = orUndefined(v)
		}
		return m.newArray(removed), nil
	})
	m.function(proto, "concat", 1, func(c *Call) (Value, error) {
		this, err := m.thisObject(c, "Array.prototype.concat")
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, item := range append([]Value{this}, c.Args...) {
			if o, ok := item.(*Object); ok && o.isArray {
				out = append(out, o.array...)
				continue
			}
			out = append(out, item)
		}
		return m.newArray(out), nil
	})
	m.function(proto, "join", 1, func(c *Call) (Value, error) {
		return m.join(c, "join")
	})
	m.function(proto, "toString", 0, func(c *Call) (Value, error) {
		return m.join(&Call{m: m, This: c.This}, "toString")
	})
	m.function(proto, "indexOf", 1, func(c *Call) (Value, error) {
		items, err := m.thisList(c, "indexOf")
		if err != nil {
			return nil, err
		}
		from, err := m.relativeIndex(c.Arg(1), len(items), 0)
		if err != nil {
			return nil, err
		}
		for i := from; i < len(items); i++ {
			if items[i] != nil && StrictEquals(items[i], c.Arg(0)) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	m.function(proto, "lastIndexOf", 1, func(c *Call) (Value, error) {
		items, err := m.thisList(c, "lastIndexOf")
		if err != nil {
			return nil, err
		}
		for i := len(items) - 1; i >= 0; i-- {
			if items[i] != nil && StrictEquals(items[i], c.Arg(0)) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	m.function(proto, "includes", 1, func(c *Call) (Value, error) {
		items, err := m.thisList(c, "includes")
		if err != nil {
			return nil, err
		}
		for _, v := range items {
			if sameValueZero(orUndefined(v), c.Arg(0)) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	m.function(proto, "reverse", 0, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "reverse")
		if err != nil {
			return nil, err
		}
		slices.Reverse(a.array)
		return a, nil
	})
	m.function(proto, "fill", 1, func(c *Call) (Value, error) {
		a, err := m.thisArray(c, "fill")
		if err != nil {
			return nil, err
		}
		start, end, err := m.sliceBounds(c.Arg(1), c.Arg(2), len(a.array))
		if err != nil {
			return nil, err
		}
		for i := start; i < end; i++ {
			a.array[i] = c.Arg(0)
		}
		return a, nil
	})

	m.function(proto, "forEach", 1, func(c *Call) (Value, error) {
		return Undefined, m.eachElement(c, "forEach", func(int, Value, Value) bool { return true })
	})
	m.function(proto, "map", 1, func(c *Call) (Value, error) {
		var out []Value
		err := m.eachElement(c, "map", func(_ int, _ Value, res Value) bool {
			out = append(out, res)
			return true
		})
		return m.newArray(out), err
	})
	m.function(proto, "filter", 1, func(c *Call) (Value, error) {
		var out []Value
		err := m.eachElement(c, "filter", func(_ int, v Value, res Value) bool {
			if ToBoolean(res) {
				out = append(out, v)
			}
			return true
		})
		return m.newArray(out), err
	})
	m.function(proto, "some", 1, func(c *Call) (Value, error) {
		found := false
		err := m.eachElement(c, "some", func(_ int, _ Value, res Value) bool {
			found = ToBoolean(res)
			return !found
		})
		return Bool(found), err
	})
	m.function(proto, "every", 1, func(c *Call) (Value, error) {
		all := true
		err := m.eachElement(c, "every", func(_ int, _ Value, res Value) bool {
			all = ToBoolean(res)
			return all
		})
		return Bool(all), err
	})
	m.function(proto, "find", 1, func(c *Call) (Value, error) {
		var found Value = Undefined
		err := m.eachElement(c, "find", func(_ int, v Value, res Value) bool {
			if ToBoolean(res) {
				found = v
				return false
			}
			return true
		})
		return found, err
	})
	m.function(proto, "findIndex", 1, func(c *Call) (Value, error) {
		found := -1
		err := m.eachElement(c, "findIndex", func(i int, _ Value, res Value) bool {
			if ToBoolean(res) {
				found = i
				return false
			}
			return true
		})
		return Number(found), err
	})
	m.function(proto, "reduce", 1, func(c *Call) (Value, error) {
		return m.reduce(c, false)
	})
	m.function(proto, "reduceRight", 1, func(c *Call) (Value, error) {
		return m.reduce(c, true)
	})
	m.function(proto, "sort", 1, m.sortArray)
}

func (m *Machine) arrayConstructor(c *Call) (Value, error) {
	if len(c.Args) == 1 {
		if n, ok := c.Args[0].(Number); ok {
			if float64(n) != float64(uint32(n)) || n > maxArrayGrowth {
				return nil, m.throwf(ErrRange, "Invalid array length")
			}
			return m.newArray(make([]Value, int(n))), nil
		}
	}
	return m.newArray(slices.Clone(c.Args)), nil
}

// thisArray returns the receiver when it is an Array. Mutating methods only work on arrays.
func (m *Machine) thisArray(c *Call, method string) (*Object, error) {
	if a, ok := c.This.(*Object); ok && a.isArray {
		return a, nil
	}
	return nil, m.throwf(ErrType, "Array.prototype.%s called on non-array %s", method, Inspect(c.This))
}

// thisList reads the receiver as an array-like. Array holes stay nil.
func (m *Machine) thisList(c *Call, method string) ([]Value, error) {
	if a, ok := c.This.(*Object); ok && a.isArray {
		return a.array, nil
	}
	o, err := m.thisObject(c, "Array.prototype."+method)
	if err != nil {
		return nil, err
	}
	if o.class == "String" {
		return m.iterate(o.primitive)
	}
	return m.toList(o)
}

// relativeIndex resolves a possibly negative index against size, clamped to [0, size].
func (m *Machine) relativeIndex(v Value, size, def int) (int, error) {
	if v == Undefined {
		return def, nil
	}
	n, err := m.toNumber(v)
	if err != nil {
		return 0, err
	}
	f := toIntegerOrInfinity(float64(n))
	if f < 0 {
		f += float64(size)
	}
	return int(math.Max(0, math.Min(f, float64(size)))), nil
}

func (m *Machine) sliceBounds(startV, endV Value, size int) (int, int, error) {
	start, err := m.relativeIndex(startV, size, 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := m.relativeIndex(endV, size, size)
	return start, end, err
}

func (m *Machine) join(c *Call, method string) (Value, error) {
	items, err := m.thisList(c, method)
	if err != nil {
		return nil, err
	}
	sep := ","
	if c.Arg(0) != Undefined {
		if sep, err = m.toString(c.Arg(0)); err != nil {
			return nil, err
		}
	}
	if self, ok := c.This.(*Object); ok {
		if m.intr.joining[self] {
			return emptyStr, nil
		}
		m.intr.joining[self] = true
		defer delete(m.intr.joining, self)
	}
	parts := make([]string, len(items))
	for i, v := range items {
		if isNullish(v) {
			continue
		}
		if parts[i], err = m.toString(v); err != nil {
			return nil, err
		}
	}
	return String(strings.Join(parts, sep)), nil
}

// eachElement calls the callback for every present element until visit returns false.
// visit receives the index, the element and the callback result.
func (m *Machine) eachElement(c *Call, method string, visit func(i int, v, res Value) bool) error {
	items, err := m.thisList(c, method)
	if err != nil {
		return err
	}
	fn, err := m.callable(c.Arg(0))
	if err != nil {
		return err
	}
	holes := method == "find" || method == "findIndex"
	for i := 0; i < len(items); i++ {
		v := items[i]
		if v == nil && !holes {
			continue
		}
		v = orUndefined(v)
		res, err := m.callSync(fn, c.Arg(1), []Value{v, Number(i), c.This})
		if err != nil {
			return err
		}
		if !visit(i, v, res) {
			return nil
		}
	}
	return nil
}

func (m *Machine) reduce(c *Call, right bool) (Value, error) {
	items, err := m.thisList(c, "reduce")
	if err != nil {
		return nil, err
	}
	fn, err := m.callable(c.Arg(0))
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, len(items))
	for i, v := range items {
		if v != nil {
			order = append(order, i)
		}
	}
	if right {
		slices.Reverse(order)
	}
	var acc Value
	if len(c.Args) > 1 {
		acc = c.Args[1]
	} else {
		if len(order) == 0 {
			return nil, m.throwf(ErrType, "Reduce of empty array with no initial value")
		}
		acc = items[order[0]]
		order = order[1:]
	}
	for _, i := range order {
		if acc, err = m.callSync(fn, Undefined, []Value{acc, items[i], Number(i), c.This}); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// sortArray sorts in place with a stable sort. Undefined elements go last and holes after them.
func (m *Machine) sortArray(c *Call) (Value, error) {
	a, err := m.thisArray(c, "sort")
	if err != nil {
		return nil, err
	}
	var cmp *Object
	if c.Arg(0) != Undefined {
		if cmp, err = m.callable(c.Arg(0)); err != nil {
			return nil, err
		}
	}

	var values []Value
	undefs, holes := 0, 0
	for _, v := range a.array {
		switch {
		case v == nil:
			holes++
		case v == Undefined:
			undefs++
		default:
			values = append(values, v)
		}
	}

	var sortErr error
	slices.SortStableFunc(values, func(x, y Value) int {
		if sortErr != nil {
			return 0
		}
		if cmp != nil {
			res, err := m.callSync(cmp, Undefined, []Value{x, y})
			if err != nil {
				sortErr = err
				return 0
			}
			n, err := m.toNumber(res)
			if err != nil {
				sortErr = err
				return 0
			}
			switch {
			case n < 0:
				return -1
			case n > 0:
				return 1
			}
			return 0
		}
		xs, err := m.toString(x)
		if err != nil {
			sortErr = err
			return 0
		}
		ys, err := m.toString(y)
		if err != nil {
			sortErr = err
			return 0
		}
		return strings.Compare(xs, ys)
	})
	if sortErr != nil {
		return nil, sortErr
	}
	for range undefs {
		values = append(values, Undefined)
	}
	a.array = append(values, make([]Value, holes)...)
	return a, nil
}
