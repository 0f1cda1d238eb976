package vm

import (
	"fmt"
	"math"
)

func (m *Machine) unary(op string, v Value) (Value, error) {
	switch op {
	case "!":
		return Bool(!ToBoolean(v)), nil
	case "void":
		return Undefined, nil
	case "-":
		n, err := m.toNumber(v)
		return -n, err
	case "+":
		return m.toNumber(v)
	case "~":
		n, err := m.toNumber(v)
		if err != nil {
			return nil, err
		}
		return Number(^toInt32(float64(n))), nil
	}
	return nil, fmt.Errorf("%w: unary operator %s", ErrNotImplemented, op)
}

func (m *Machine) binary(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		return m.add(l, r)
	case "-", "*", "/", "%", "**":
		a, b, err := m.numbers(l, r)
		if err != nil {
			return nil, err
		}
		return arithmetic(op, float64(a), float64(b)), nil
	case "&", "|", "^", "<<", ">>", ">>>":
		a, b, err := m.numbers(l, r)
		if err != nil {
			return nil, err
		}
		return bitwise(op, float64(a), float64(b)), nil
	case "==":
		eq, err := m.looseEquals(l, r)
		return Bool(eq), err
	case "!=":
		eq, err := m.looseEquals(l, r)
		return Bool(!eq), err
	case "===":
		return Bool(StrictEquals(l, r)), nil
	case "!==":
		return Bool(!StrictEquals(l, r)), nil
	case "<":
		res, err := m.lessThan(l, r, true)
		return Bool(res == cmpTrue), err
	case ">":
		res, err := m.lessThan(r, l, false)
		return Bool(res == cmpTrue), err
	case "<=":
		res, err := m.lessThan(r, l, false)
		return Bool(res == cmpFalse), err
	case ">=":
		res, err := m.lessThan(l, r, true)
		return Bool(res == cmpFalse), err
	case "instanceof":
		return m.instanceOf(l, r)
	case "in":
		obj, ok := r.(*Object)
		if !ok {
			return nil, m.throwf(ErrType, "Cannot use 'in' operator to search for '%s' in %s", ToString(l), ToString(r))
		}
		key, err := m.toPropertyKey(l)
		if err != nil {
			return nil, err
		}
		return Bool(obj.hasProperty(key)), nil
	}
	return nil, fmt.Errorf("%w: binary operator %s", ErrNotImplemented, op)
}

func (m *Machine) numbers(l, r Value) (Number, Number, error) {
	a, err := m.toNumber(l)
	if err != nil {
		return 0, 0, err
	}
	b, err := m.toNumber(r)
	return a, b, err
}

func (m *Machine) add(l, r Value) (Value, error) {
	lp, err := m.toPrimitive(l, "default")
	if err != nil {
		return nil, err
	}
	rp, err := m.toPrimitive(r, "default")
	if err != nil {
		return nil, err
	}
	_, ls := lp.(String)
	_, rs := rp.(String)
	if ls || rs {
		return String(ToString(lp) + ToString(rp)), nil
	}
	a, b, err := m.numbers(lp, rp)
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

func arithmetic(op string, a, b float64) Number {
	switch op {
	case "-":
		return Number(a - b)
	case "*":
		return Number(a * b)
	case "/":
		return Number(a / b)
	case "%":
		return Number(math.Mod(a, b))
	default:
		if math.IsNaN(b) || (math.Abs(a) == 1 && math.IsInf(b, 0)) {
			return nan
		}
		return Number(math.Pow(a, b))
	}
}

func bitwise(op string, a, b float64) Number {
	x := toInt32(a)
	shift := toUint32(b) & 31
	switch op {
	case "&":
		return Number(x & toInt32(b))
	case "|":
		return Number(x | toInt32(b))
	case "^":
		return Number(x ^ toInt32(b))
	case "<<":
		return Number(x << shift)
	case ">>":
		return Number(x >> shift)
	default:
		return Number(toUint32(a) >> shift)
	}
}

type cmpResult uint8

const (
	cmpFalse cmpResult = iota
	cmpTrue
	// cmpUndefined is the result when either operand is NaN.
	cmpUndefined
)

// lessThan is the abstract relational comparison l < r. leftFirst controls which
// operand is converted first.
func (m *Machine) lessThan(l, r Value, leftFirst bool) (cmpResult, error) {
	var lp, rp Value
	var err error
	if leftFirst {
		if lp, err = m.toPrimitive(l, "number"); err != nil {
			return cmpFalse, err
		}
		if rp, err = m.toPrimitive(r, "number"); err != nil {
			return cmpFalse, err
		}
	} else {
		if rp, err = m.toPrimitive(r, "number"); err != nil {
			return cmpFalse, err
		}
		if lp, err = m.toPrimitive(l, "number"); err != nil {
			return cmpFalse, err
		}
	}
	ls, lok := lp.(String)
	rs, rok := rp.(String)
	if lok && rok {
		if ls < rs {
			return cmpTrue, nil
		}
		return cmpFalse, nil
	}
	a, b, err := m.numbers(lp, rp)
	if err != nil {
		return cmpFalse, err
	}
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return cmpUndefined, nil
	}
	if a < b {
		return cmpTrue, nil
	}
	return cmpFalse, nil
}

func (m *Machine) instanceOf(l, r Value) (Value, error) {
	ctor, ok := r.(*Object)
	if !ok || !ctor.Callable() {
		return nil, m.throwf(ErrType, "Right-hand side of 'instanceof' is not callable")
	}
	for ctor.bound != nil {
		ctor = ctor.bound.target
	}
	obj, ok := l.(*Object)
	if !ok {
		return Bool(false), nil
	}
	protoValue, err := m.getProp(ctor, "prototype", ctor)
	if err != nil {
		return nil, err
	}
	proto, ok := protoValue.(*Object)
	if !ok {
		return nil, m.throwf(ErrType, "Function has non-object prototype in instanceof check")
	}
	for cur := obj.proto; cur != nil; cur = cur.proto {
		if cur == proto {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}
