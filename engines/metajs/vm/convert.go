package vm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ToBoolean converts v following the language truthiness rules.
func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Number:
		return x != 0 && !math.IsNaN(float64(x))
	case String:
		return x != ""
	case *Object:
		return true
	default:
		return false
	}
}

var (
	decimalLiteral = regexp.MustCompile(`^[+-]?(?:(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?|Infinity)$`)
	floatPrefix    = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
)

// stringToNumber converts numeric string syntax; anything else is NaN.
func stringToNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return nan
			}
			return Number(n)
		}
	}
	if !decimalLiteral.MatchString(s) {
		return nan
	}
	switch s {
	case "Infinity", "+Infinity":
		return posInf
	case "-Infinity":
		return negInf
	}
	// out-of-range input yields ±Inf together with an error, which is the wanted result
	f, _ := strconv.ParseFloat(s, 64)
	return Number(f)
}

// numberToString formats a number the way the language prints it: the shortest
// round-trip digits, in exponent form below 1e-6 and from 1e21 up.
func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + numberToString(-f)
	}

	repr := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(repr, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mantissa, ".", "", 1)
	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}
	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	e := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + e
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + e
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}

func toInt32(f float64) int32 { return int32(toUint32(f)) }

// toIntegerOrInfinity truncates toward zero, mapping NaN to zero.
func toIntegerOrInfinity(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Trunc(f)
}

// toPrimitive converts objects with valueOf/toString; hint is "number", "string" or "default".
func (m *Machine) toPrimitive(v Value, hint string) (Value, error) {
	obj, ok := v.(*Object)
	if !ok {
		return v, nil
	}
	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		method, err := m.getProp(obj, name, obj)
		if err != nil {
			return nil, err
		}
		fn, ok := method.(*Object)
		if !ok || !fn.Callable() {
			continue
		}
		res, err := m.callSync(fn, obj, nil)
		if err != nil {
			return nil, err
		}
		if _, isObj := res.(*Object); !isObj {
			return res, nil
		}
	}
	return nil, m.throwf(ErrType, "Cannot convert object to primitive value")
}

func (m *Machine) toNumber(v Value) (Number, error) {
	switch x := v.(type) {
	case Number:
		return x, nil
	case Bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case String:
		return stringToNumber(string(x)), nil
	case *Object:
		p, err := m.toPrimitive(x, "number")
		if err != nil {
			return 0, err
		}
		return m.toNumber(p)
	default:
		if v == Null {
			return 0, nil
		}
		return nan, nil
	}
}

func (m *Machine) toString(v Value) (string, error) {
	if x, ok := v.(*Object); ok {
		p, err := m.toPrimitive(x, "string")
		if err != nil {
			return "", err
		}
		return m.toString(p)
	}
	return ToString(v), nil
}

// ToString converts a primitive without running script code; objects render as
// "[object Class]".
func ToString(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case Number:
		return numberToString(float64(x))
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case *Object:
		return x.String()
	default:
		if v == Null {
			return "null"
		}
		return "undefined"
	}
}

func (m *Machine) toPropertyKey(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	p, err := m.toPrimitive(v, "string")
	if err != nil {
		return "", err
	}
	return m.toString(p)
}

func (m *Machine) toObject(v Value) (*Object, error) {
	switch x := v.(type) {
	case *Object:
		return x, nil
	case String, Number, Bool:
		return m.box(x), nil
	default:
		return nil, m.throwf(ErrType, "Cannot convert %s to object", nullishName(v))
	}
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Number:
		return x == b.(Number)
	case String:
		return x == b.(String)
	case Bool:
		return x == b.(Bool)
	case *Object:
		return x == b.(*Object)
	default:
		return true
	}
}

// sameValueZero is strict equality where NaN equals NaN.
func sameValueZero(a, b Value) bool {
	if x, ok := a.(Number); ok {
		if y, ok := b.(Number); ok && math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
			return true
		}
	}
	return StrictEquals(a, b)
}

// looseEquals implements ==.
func (m *Machine) looseEquals(a, b Value) (bool, error) {
	if a.Kind() == b.Kind() {
		return StrictEquals(a, b), nil
	}
	if isNullish(a) && isNullish(b) {
		return true, nil
	}
	if isNullish(a) || isNullish(b) {
		return false, nil
	}
	switch {
	case a.Kind() == KindNumber && b.Kind() == KindString:
		return a.(Number) == stringToNumber(string(b.(String))), nil
	case a.Kind() == KindString && b.Kind() == KindNumber:
		return stringToNumber(string(a.(String))) == b.(Number), nil
	case a.Kind() == KindBool:
		n, _ := m.toNumber(a)
		return m.looseEquals(n, b)
	case b.Kind() == KindBool:
		n, _ := m.toNumber(b)
		return m.looseEquals(a, n)
	case a.Kind() == KindObject:
		p, err := m.toPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return m.looseEquals(p, b)
	case b.Kind() == KindObject:
		p, err := m.toPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return m.looseEquals(a, p)
	}
	return false, nil
}
