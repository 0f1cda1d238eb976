package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1.5, "-1.5"},
		{0.30000000000000004, "0.30000000000000004"},
		{123456789, "123456789"},
		{1e21, "1e+21"},
		{1.5e21, "1.5e+21"},
		{1e20, "100000000000000000000"},
		{0.000001, "0.000001"},
		{0.0000001, "1e-7"},
		{1.25e-10, "1.25e-10"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.MaxFloat64, "1.7976931348623157e+308"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, numberToString(tt.in))
		})
	}
}

func TestStringToNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"42", 42},
		{" -3.5 ", -3.5},
		{".5", 0.5},
		{"5.", 5},
		{"1e3", 1000},
		{"0x10", 16},
		{"0b101", 5},
		{"0o17", 15},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e400", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, Number(tt.want), stringToNumber(tt.in))
		})
	}

	for _, in := range []string{"abc", "1a", "0x", "0xg", "--1", "infinity", "1e", "1_000"} {
		t.Run("NaN "+in, func(t *testing.T) {
			t.Parallel()
			assert.True(t, math.IsNaN(float64(stringToNumber(in))))
		})
	}
}

func TestToFixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     float64
		digits int
		want   string
	}{
		{1.005, 2, "1.00"},
		{1.5, 0, "2"},
		{2.5, 0, "3"},
		{-1.5, 0, "-2"},
		{0.5, 0, "1"},
		{1.45, 1, "1.4"},
		{1.55, 1, "1.6"},
		{0, 2, "0.00"},
		{0.001, 5, "0.00100"},
		{123.456, 1, "123.5"},
		{-0.0001, 2, "-0.00"},
		{1e21, 2, "1e+21"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, toFixed(tt.in, tt.digits))
		})
	}
}

func TestFormatRadix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ff", formatRadix(255, 16))
	assert.Equal(t, "-101", formatRadix(-5, 2))
	assert.Equal(t, "0.1", formatRadix(0.5, 2))
	assert.Equal(t, "z", formatRadix(35, 36))
	assert.Equal(t, "NaN", formatRadix(math.NaN(), 16))
}

func TestIntegerConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(4294967295), toUint32(-1))
	assert.Equal(t, uint32(0), toUint32(math.NaN()))
	assert.Equal(t, uint32(1), toUint32(4294967297))
	assert.Equal(t, int32(-2147483648), toInt32(2147483648))
	assert.Equal(t, 3.0, toIntegerOrInfinity(3.9))
	assert.Equal(t, -3.0, toIntegerOrInfinity(-3.9))
	assert.Equal(t, 0.0, toIntegerOrInfinity(math.NaN()))
	assert.True(t, math.IsInf(toIntegerOrInfinity(math.Inf(1)), 1))
}

func TestEquality(t *testing.T) {
	t.Parallel()

	nan := Number(math.NaN())
	assert.False(t, StrictEquals(nan, nan))
	assert.True(t, StrictEquals(Number(0), Number(math.Copysign(0, -1))))
	assert.True(t, StrictEquals(Undefined, Undefined))
	assert.False(t, StrictEquals(Undefined, Null))
	assert.True(t, sameValueZero(nan, nan))
	assert.True(t, StrictEquals(String("a"), String("a")))

	m, _ := newTestMachine(t)
	o := m.NewObject()
	assert.True(t, StrictEquals(o, o))
	assert.False(t, StrictEquals(o, m.NewObject()))

	eq, err := m.looseEquals(Null, Undefined)
	assert.NoError(t, err)
	assert.True(t, eq)
	eq, err = m.looseEquals(String("1"), Bool(true))
	assert.NoError(t, err)
	assert.True(t, eq)
}

func TestTypeOfAndToBoolean(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t)
	fn := m.NewFunction("f", 0, func(*Call) (Value, error) { return Undefined, nil })

	assert.Equal(t, "undefined", TypeOf(Undefined))
	assert.Equal(t, "object", TypeOf(Null))
	assert.Equal(t, "number", TypeOf(Number(1)))
	assert.Equal(t, "string", TypeOf(String("")))
	assert.Equal(t, "boolean", TypeOf(Bool(false)))
	assert.Equal(t, "object", TypeOf(m.NewObject()))
	assert.Equal(t, "function", TypeOf(fn))

	assert.False(t, ToBoolean(Number(math.NaN())))
	assert.False(t, ToBoolean(String("")))
	assert.True(t, ToBoolean(String("0")))
	assert.True(t, ToBoolean(m.NewArray()))
	assert.False(t, ToBoolean(Null))
}
