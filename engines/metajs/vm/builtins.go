package vm

import (
	"math"
	"strings"
	"unicode"
)

// intrinsics are the built-in objects every Machine starts with.
type intrinsics struct {
	objectProto   *Object
	functionProto *Object
	arrayProto    *Object
	stringProto   *Object
	numberProto   *Object
	booleanProto  *Object
	regexpProto   *Object
	errorProtos   map[string]*Object
	eval          *Object

	// joining guards Array.prototype.join against cyclic arrays.
	joining map[*Object]bool
}

// setupGlobals builds the intrinsics and the global object, and roots the scope chain there.
func (m *Machine) setupGlobals() {
	m.intr.objectProto = newObject(nil)
	m.intr.functionProto = newObject(m.intr.objectProto)
	m.intr.functionProto.class = "Function"
	m.intr.functionProto.native = func(*Call) (Value, error) { return Undefined, nil }
	m.intr.joining = map[*Object]bool{}

	m.global = newObject(m.intr.objectProto)
	m.global.class = "global"
	m.root = newObjectScope(GlobalScope, m.global, nil)
	m.root.this = m.global

	g := m.global
	g.defineOwn("undefined", &property{value: Undefined})
	g.defineOwn("NaN", &property{value: nan})
	g.defineOwn("Infinity", &property{value: posInf})
	g.set("globalThis", g)

	m.setupObject()
	m.setupFunction()
	m.setupArray()
	m.setupString()
	m.setupNumber()
	m.setupBoolean()
	m.setupErrors()
	m.setupRegExp()
	m.setupMath()
	m.setupJSON()
	m.setupConsole()

	m.intr.eval = m.newNative("eval", 1, func(c *Call) (Value, error) {
		res, err := m.runToCompletion(func(k Continuation) {
			m.evalCode(callSite{scope: m.root}, c.Args, k)
		})
		if err != nil {
			return nil, err
		}
		return m.completionValue(res)
	})
	g.set("eval", m.intr.eval)

	m.function(g, "isNaN", 1, func(c *Call) (Value, error) {
		n, err := m.toNumber(c.Arg(0))
		return Bool(math.IsNaN(float64(n))), err
	})
	m.function(g, "isFinite", 1, func(c *Call) (Value, error) {
		n, err := m.toNumber(c.Arg(0))
		return Bool(!math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), err
	})
	m.function(g, "parseInt", 2, m.parseInt)
	m.function(g, "parseFloat", 1, m.parseFloat)
}

// newNative creates a function object backed by Go code.
func (m *Machine) newNative(name string, length int, fn NativeFunc) *Object {
	obj := newObject(m.intr.functionProto)
	obj.class = "Function"
	obj.native = fn
	obj.defineOwn("length", &property{value: Number(length), configurable: true})
	obj.defineOwn("name", &property{value: String(name), configurable: true})
	return obj
}

// function installs a native method as a hidden property of o.
func (m *Machine) function(o *Object, name string, length int, fn NativeFunc) *Object {
	f := m.newNative(name, length, fn)
	o.set(name, f)
	return f
}

// constructor installs a global constructor whose instances inherit from proto.
// A nil construct makes new behave like a plain call.
func (m *Machine) constructor(name string, length int, proto *Object, call, construct NativeFunc) *Object {
	if construct == nil {
		construct = call
	}
	ctor := m.newNative(name, length, call)
	ctor.construct = construct
	ctor.defineOwn("prototype", &property{value: proto})
	proto.set("constructor", ctor)
	m.global.set(name, ctor)
	return ctor
}

// thisObject returns the receiver of a method call, boxing primitives.
func (m *Machine) thisObject(c *Call, method string) (*Object, error) {
	if isNullish(c.This) {
		return nil, m.throwf(ErrType, "%s called on null or undefined", method)
	}
	return m.toObject(c.This)
}

// callable returns v as a function or raises a TypeError.
func (m *Machine) callable(v Value) (*Object, error) {
	fn, ok := v.(*Object)
	if !ok || !fn.Callable() {
		return nil, m.throwf(ErrType, "%s is not a function", Inspect(v))
	}
	return fn, nil
}

func (m *Machine) parseInt(c *Call) (Value, error) {
	s, err := m.toString(c.Arg(0))
	if err != nil {
		return nil, err
	}
	rn, err := m.toNumber(c.Arg(1))
	if err != nil {
		return nil, err
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	radix := int(toInt32(float64(rn)))
	stripPrefix := true
	if radix != 0 {
		if radix < 2 || radix > 36 {
			return nan, nil
		}
		stripPrefix = radix == 16
	} else {
		radix = 10
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}
	result, digits := 0.0, 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || d >= radix {
			break
		}
		result = result*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return nan, nil
	}
	return Number(sign * result), nil
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	}
	return -1
}

func (m *Machine) parseFloat(c *Call) (Value, error) {
	s, err := m.toString(c.Arg(0))
	if err != nil {
		return nil, err
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	prefix := floatPrefix.FindString(s)
	if prefix == "" {
		return nan, nil
	}
	return stringToNumber(prefix), nil
}
