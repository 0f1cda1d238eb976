package vm

import "math"

// Kind identifies the language type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "object"
	}
}

// Value is any value a script can observe: Undefined, Null, Bool, Number, String or *Object.
type Value interface {
	Kind() Kind
}

type undefinedValue struct{}

func (undefinedValue) Kind() Kind { return KindUndefined }

type nullValue struct{}

func (nullValue) Kind() Kind { return KindNull }

var (
	Undefined Value = undefinedValue{}
	Null      Value = nullValue{}
)

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type Number float64

func (Number) Kind() Kind { return KindNumber }

type String string

func (String) Kind() Kind { return KindString }

var (
	nan      = Number(math.NaN())
	posInf   = Number(math.Inf(1))
	negInf   = Number(math.Inf(-1))
	negZero  = Number(math.Copysign(0, -1))
	emptyStr = String("")
)

func isNullish(v Value) bool {
	if v == nil {
		return true
	}
	k := v.Kind()
	return k == KindUndefined || k == KindNull
}

// orUndefined maps the empty completion value to undefined.
func orUndefined(v Value) Value {
	if v == nil {
		return Undefined
	}
	return v
}

// TypeOf returns the result of the typeof operator for v.
func TypeOf(v Value) string {
	switch x := v.(type) {
	case *Object:
		if x.Callable() {
			return "function"
		}
		return "object"
	case nil:
		return "undefined"
	default:
		if v.Kind() == KindNull {
			return "object"
		}
		return v.Kind().String()
	}
}
