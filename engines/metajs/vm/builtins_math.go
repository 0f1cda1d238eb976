package vm

import (
	"math"
	"math/rand/v2"
)

func (m *Machine) setupMath() {
	obj := m.newPlainObject()
	obj.class = "Math"
	m.global.set("Math", obj)

	for _, c := range []struct {
		name  string
		value float64
	}{
		{"PI", math.Pi},
		{"E", math.E},
		{"LN2", math.Ln2},
		{"LN10", math.Ln10},
		{"LOG2E", math.Log2E},
		{"LOG10E", math.Log10E},
		{"SQRT2", math.Sqrt2},
		{"SQRT1_2", math.Sqrt2 / 2},
	} {
		obj.defineOwn(c.name, &property{value: Number(c.value)})
	}

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"trunc": math.Trunc,
		"exp":   math.Exp,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"round": jsRound,
		"sign":  jsSign,
	}
	for _, name := range []string{
		"abs", "floor", "ceil", "sqrt", "cbrt", "trunc", "exp", "log", "log2", "log10",
		"sin", "cos", "tan", "asin", "acos", "atan", "round", "sign",
	} {
		f := unary[name]
		m.function(obj, name, 1, func(c *Call) (Value, error) {
			n, err := m.toNumber(c.Arg(0))
			if err != nil {
				return nil, err
			}
			return Number(f(float64(n))), nil
		})
	}

	m.function(obj, "pow", 2, func(c *Call) (Value, error) {
		a, b, err := m.numbers(c.Arg(0), c.Arg(1))
		if err != nil {
			return nil, err
		}
		return arithmetic("**", float64(a), float64(b)), nil
	})
	m.function(obj, "atan2", 2, func(c *Call) (Value, error) {
		a, b, err := m.numbers(c.Arg(0), c.Arg(1))
		if err != nil {
			return nil, err
		}
		return Number(math.Atan2(float64(a), float64(b))), nil
	})
	m.function(obj, "max", 2, func(c *Call) (Value, error) {
		return m.extremum(c.Args, math.Inf(-1), func(a, b float64) bool {
			return a > b || (a == 0 && b == 0 && !math.Signbit(a))
		})
	})
	m.function(obj, "min", 2, func(c *Call) (Value, error) {
		return m.extremum(c.Args, math.Inf(1), func(a, b float64) bool {
			return a < b || (a == 0 && b == 0 && math.Signbit(a))
		})
	})
	m.function(obj, "hypot", 2, func(c *Call) (Value, error) {
		sum := 0.0
		for _, a := range c.Args {
			n, err := m.toNumber(a)
			if err != nil {
				return nil, err
			}
			if math.IsInf(float64(n), 0) {
				return posInf, nil
			}
			sum += float64(n) * float64(n)
		}
		return Number(math.Sqrt(sum)), nil
	})
	m.function(obj, "random", 0, func(*Call) (Value, error) {
		return Number(rand.Float64()), nil
	})
}

// extremum returns the argument preferred by better, or NaN when any argument is NaN.
func (m *Machine) extremum(args []Value, start float64, better func(a, b float64) bool) (Value, error) {
	best := start
	isNaN := false
	for _, a := range args {
		n, err := m.toNumber(a)
		if err != nil {
			return nil, err
		}
		f := float64(n)
		if math.IsNaN(f) {
			isNaN = true
			continue
		}
		if better(f, best) {
			best = f
		}
	}
	if isNaN {
		return nan, nil
	}
	return Number(best), nil
}

func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 && x < 0 {
		return math.Copysign(0, -1)
	}
	return r
}

func jsSign(x float64) float64 {
	switch {
	case math.IsNaN(x) || x == 0:
		return x
	case x > 0:
		return 1
	default:
		return -1
	}
}
