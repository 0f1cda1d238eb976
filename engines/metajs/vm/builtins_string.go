package vm

import (
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

func (m *Machine) setupString() {
	proto := newObject(m.intr.objectProto)
	m.intr.stringProto = proto

	ctor := m.constructor("String", 1, proto, func(c *Call) (Value, error) {
		if len(c.Args) == 0 {
			return emptyStr, nil
		}
		s, err := m.toString(c.Args[0])
		return String(s), err
	}, func(c *Call) (Value, error) {
		s := ""
		if len(c.Args) > 0 {
			var err error
			if s, err = m.toString(c.Args[0]); err != nil {
				return nil, err
			}
		}
		return m.box(String(s)), nil
	})
	m.function(ctor, "fromCharCode", 1, func(c *Call) (Value, error) {
		var b strings.Builder
		for _, a := range c.Args {
			n, err := m.toNumber(a)
			if err != nil {
				return nil, err
			}
			b.WriteRune(rune(uint16(toUint32(float64(n)))))
		}
		return String(b.String()), nil
	})

	m.stringMethod(proto, "toString", 0, func(_ *Call, s []rune) (Value, error) { return String(s), nil })
	m.stringMethod(proto, "valueOf", 0, func(_ *Call, s []rune) (Value, error) { return String(s), nil })
	m.stringMethod(proto, "charAt", 1, func(c *Call, s []rune) (Value, error) {
		i, err := m.toNumber(c.Arg(0))
		if err != nil {
			return nil, err
		}
		idx := toIntegerOrInfinity(float64(i))
		if idx < 0 || idx >= float64(len(s)) {
			return emptyStr, nil
		}
		return String(s[int(idx)]), nil
	})
	m.stringMethod(proto, "charCodeAt", 1, func(c *Call, s []rune) (Value, error) {
		i, err := m.toNumber(c.Arg(0))
		if err != nil {
			return nil, err
		}
		idx := toIntegerOrInfinity(float64(i))
		if idx < 0 || idx >= float64(len(s)) {
			return nan, nil
		}
		return Number(s[int(idx)]), nil
	})
	m.stringMethod(proto, "indexOf", 1, func(c *Call, s []rune) (Value, error) {
		search, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		from, err := m.relativeIndex(clampStart(c.Arg(1)), len(s), 0)
		if err != nil {
			return nil, err
		}
		return Number(runeIndex(s, []rune(search), from)), nil
	})
	m.stringMethod(proto, "lastIndexOf", 1, func(c *Call, s []rune) (Value, error) {
		search, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		needle := []rune(search)
		for i := len(s) - len(needle); i >= 0; i-- {
			if slices.Equal(s[i:i+len(needle)], needle) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	m.stringMethod(proto, "includes", 1, func(c *Call, s []rune) (Value, error) {
		search, err := m.searchString(c.Arg(0), "includes")
		if err != nil {
			return nil, err
		}
		return Bool(runeIndex(s, []rune(search), 0) >= 0), nil
	})
	m.stringMethod(proto, "startsWith", 1, func(c *Call, s []rune) (Value, error) {
		search, err := m.searchString(c.Arg(0), "startsWith")
		if err != nil {
			return nil, err
		}
		pos, err := m.relativeIndex(clampStart(c.Arg(1)), len(s), 0)
		if err != nil {
			return nil, err
		}
		return Bool(strings.HasPrefix(string(s[pos:]), search)), nil
	})
	m.stringMethod(proto, "endsWith", 1, func(c *Call, s []rune) (Value, error) {
		search, err := m.searchString(c.Arg(0), "endsWith")
		if err != nil {
			return nil, err
		}
		end, err := m.relativeIndex(clampStart(c.Arg(1)), len(s), len(s))
		if err != nil {
			return nil, err
		}
		return Bool(strings.HasSuffix(string(s[:end]), search)), nil
	})
	m.stringMethod(proto, "slice", 2, func(c *Call, s []rune) (Value, error) {
		start, end, err := m.sliceBounds(c.Arg(0), c.Arg(1), len(s))
		if err != nil || start >= end {
			return emptyStr, err
		}
		return String(s[start:end]), nil
	})
	m.stringMethod(proto, "substring", 2, func(c *Call, s []rune) (Value, error) {
		start, end, err := m.sliceBounds(clampStart(c.Arg(0)), clampStart(c.Arg(1)), len(s))
		if err != nil {
			return nil, err
		}
		if start > end {
			start, end = end, start
		}
		return String(s[start:end]), nil
	})
	m.stringMethod(proto, "substr", 2, func(c *Call, s []rune) (Value, error) {
		start, err := m.relativeIndex(c.Arg(0), len(s), 0)
		if err != nil {
			return nil, err
		}
		count := len(s) - start
		if c.Arg(1) != Undefined {
			n, err := m.toNumber(c.Arg(1))
			if err != nil {
				return nil, err
			}
			count = int(math.Max(0, math.Min(toIntegerOrInfinity(float64(n)), float64(count))))
		}
		return String(s[start : start+count]), nil
	})
	m.stringMethod(proto, "toUpperCase", 0, func(_ *Call, s []rune) (Value, error) {
		return String(strings.ToUpper(string(s))), nil
	})
	m.stringMethod(proto, "toLowerCase", 0, func(_ *Call, s []rune) (Value, error) {
		return String(strings.ToLower(string(s))), nil
	})
	m.stringMethod(proto, "trim", 0, func(_ *Call, s []rune) (Value, error) {
		return String(strings.TrimFunc(string(s), unicode.IsSpace)), nil
	})
	m.stringMethod(proto, "trimStart", 0, func(_ *Call, s []rune) (Value, error) {
		return String(strings.TrimLeftFunc(string(s), unicode.IsSpace)), nil
	})
	m.stringMethod(proto, "trimEnd", 0, func(_ *Call, s []rune) (Value, error) {
		return String(strings.TrimRightFunc(string(s), unicode.IsSpace)), nil
	})
	m.stringMethod(proto, "padStart", 2, func(c *Call, s []rune) (Value, error) {
		return m.pad(c, s, true)
	})
	m.stringMethod(proto, "padEnd", 2, func(c *Call, s []rune) (Value, error) {
		return m.pad(c, s, false)
	})
	m.stringMethod(proto, "repeat", 1, func(c *Call, s []rune) (Value, error) {
		n, err := m.toNumber(c.Arg(0))
		if err != nil {
			return nil, err
		}
		count := toIntegerOrInfinity(float64(n))
		if count < 0 || math.IsInf(count, 1) || count*float64(len(s)) > maxArrayGrowth {
			return nil, m.throwf(ErrRange, "Invalid count value: %s", numberToString(float64(n)))
		}
		return String(strings.Repeat(string(s), int(count))), nil
	})
	m.stringMethod(proto, "concat", 1, func(c *Call, s []rune) (Value, error) {
		var b strings.Builder
		b.WriteString(string(s))
		for _, a := range c.Args {
			part, err := m.toString(a)
			if err != nil {
				return nil, err
			}
			b.WriteString(part)
		}
		return String(b.String()), nil
	})
	m.stringMethod(proto, "localeCompare", 1, func(c *Call, s []rune) (Value, error) {
		other, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		return Number(strings.Compare(string(s), other)), nil
	})
	m.stringMethod(proto, "split", 2, m.split)
	m.stringMethod(proto, "replace", 2, func(c *Call, s []rune) (Value, error) {
		return m.replace(c, s, false)
	})
	m.stringMethod(proto, "replaceAll", 2, func(c *Call, s []rune) (Value, error) {
		return m.replace(c, s, true)
	})
	m.stringMethod(proto, "match", 1, func(c *Call, s []rune) (Value, error) {
		re, err := m.toRegExp(c.Arg(0))
		if err != nil {
			return nil, err
		}
		if !re.re.global {
			found, err := m.exec(re, s)
			if err != nil || found == nil {
				return Null, err
			}
			return m.matchArray(found, string(s)), nil
		}
		all, err := m.allMatches(re, s)
		if err != nil || len(all) == 0 {
			return Null, err
		}
		out := make([]Value, len(all))
		for i, found := range all {
			out[i] = found.groups[0]
		}
		return m.newArray(out), nil
	})
	m.stringMethod(proto, "search", 1, func(c *Call, s []rune) (Value, error) {
		re, err := m.toRegExp(c.Arg(0))
		if err != nil {
			return nil, err
		}
		found, err := m.findAt(re.re, s, 0)
		if err != nil || found == nil {
			return Number(-1), err
		}
		return Number(found.start), nil
	})
}

// stringMethod installs a String.prototype method that receives its receiver as runes.
func (m *Machine) stringMethod(proto *Object, name string, length int, fn func(c *Call, s []rune) (Value, error)) {
	m.function(proto, name, length, func(c *Call) (Value, error) {
		s, err := m.thisString(c, name)
		if err != nil {
			return nil, err
		}
		return fn(c, []rune(s))
	})
}

func (m *Machine) thisString(c *Call, method string) (string, error) {
	if s, ok := c.This.(String); ok {
		return string(s), nil
	}
	if o, ok := c.This.(*Object); ok && o.class == "String" {
		return string(o.primitive.(String)), nil
	}
	if method == "toString" || method == "valueOf" {
		return "", m.throwf(ErrType, "String.prototype.%s requires that 'this' be a String", method)
	}
	if isNullish(c.This) {
		return "", m.throwf(ErrType, "String.prototype.%s called on null or undefined", method)
	}
	return m.toString(c.This)
}

// clampStart maps negative positions to zero for methods that do not count from the end.
func clampStart(v Value) Value {
	if n, ok := v.(Number); ok && n < 0 {
		return Number(0)
	}
	return v
}

func runeIndex(hay, needle []rune, from int) int {
	for i := from; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func (m *Machine) searchString(v Value, method string) (string, error) {
	if o, ok := v.(*Object); ok && o.re != nil {
		return "", m.throwf(ErrType, "First argument to String.prototype.%s must not be a regular expression", method)
	}
	return m.toString(v)
}

func (m *Machine) pad(c *Call, s []rune, start bool) (Value, error) {
	n, err := m.toNumber(c.Arg(0))
	if err != nil {
		return nil, err
	}
	target := toIntegerOrInfinity(float64(n))
	if target <= float64(len(s)) {
		return String(s), nil
	}
	if target > maxArrayGrowth {
		return nil, m.throwf(ErrRange, "Invalid string length")
	}
	filler := " "
	if c.Arg(1) != Undefined {
		if filler, err = m.toString(c.Arg(1)); err != nil {
			return nil, err
		}
	}
	if filler == "" {
		return String(s), nil
	}
	fill := []rune(strings.Repeat(filler, int(target)))[:int(target)-len(s)]
	if start {
		return String(string(fill) + string(s)), nil
	}
	return String(string(s) + string(fill)), nil
}

// toRegExp returns v when it is a RegExp, or compiles its string form.
func (m *Machine) toRegExp(v Value) (*Object, error) {
	if o, ok := v.(*Object); ok && o.re != nil {
		return o, nil
	}
	pattern := ""
	if v != Undefined {
		s, err := m.toString(v)
		if err != nil {
			return nil, err
		}
		pattern = s
	}
	return m.newRegExp(pattern, "")
}

func (m *Machine) split(c *Call, s []rune) (Value, error) {
	limit := uint32(math.MaxUint32)
	if c.Arg(1) != Undefined {
		n, err := m.toNumber(c.Arg(1))
		if err != nil {
			return nil, err
		}
		limit = toUint32(float64(n))
	}
	var out []Value
	full := func() bool { return uint32(len(out)) >= limit }
	if limit == 0 {
		return m.newArray(nil), nil
	}
	if c.Arg(0) == Undefined {
		return m.newArray([]Value{String(s)}), nil
	}

	if re, ok := c.Arg(0).(*Object); ok && re.re != nil {
		if len(s) == 0 {
			found, err := m.findAt(re.re, s, 0)
			if err != nil || found != nil {
				return m.newArray(nil), err
			}
			return m.newArray([]Value{emptyStr}), nil
		}
		p, q := 0, 0
		for q < len(s) {
			found, err := m.findAt(re.re, s, q)
			if err != nil {
				return nil, err
			}
			if found == nil || found.start >= len(s) {
				break
			}
			if found.end == p {
				q = found.start + 1
				continue
			}
			out = append(out, String(s[p:found.start]))
			if full() {
				return m.newArray(out), nil
			}
			for _, g := range found.groups[1:] {
				out = append(out, g)
				if full() {
					return m.newArray(out), nil
				}
			}
			p = found.end
			q = p
			if found.end == found.start {
				q++
			}
		}
		out = append(out, String(s[p:]))
		return m.newArray(out), nil
	}

	sep, err := m.toString(c.Arg(0))
	if err != nil {
		return nil, err
	}
	var parts []string
	if sep == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(string(s), sep)
	}
	for _, p := range parts {
		out = append(out, String(p))
		if full() {
			break
		}
	}
	return m.newArray(out), nil
}

// replace implements replace and replaceAll for string and RegExp patterns.
func (m *Machine) replace(c *Call, s []rune, all bool) (Value, error) {
	var matches []*reMatch
	if re, ok := c.Arg(0).(*Object); ok && re.re != nil {
		if all && !re.re.global {
			return nil, m.throwf(ErrType, "replaceAll must be called with a global RegExp")
		}
		if re.re.global {
			var err error
			if matches, err = m.allMatches(re, s); err != nil {
				return nil, err
			}
		} else {
			found, err := m.exec(re, s)
			if err != nil {
				return nil, err
			}
			if found != nil {
				matches = append(matches, found)
			}
		}
	} else {
		search, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		needle := []rune(search)
		for pos := 0; pos <= len(s); {
			i := runeIndex(s, needle, pos)
			if i < 0 {
				break
			}
			matches = append(matches, &reMatch{start: i, end: i + len(needle), groups: []Value{String(search)}})
			if !all {
				break
			}
			pos = i + max(1, len(needle))
		}
	}

	replacer, isFn := c.Arg(1).(*Object)
	isFn = isFn && replacer.Callable()
	template := ""
	if !isFn {
		var err error
		if template, err = m.toString(c.Arg(1)); err != nil {
			return nil, err
		}
	}

	var b strings.Builder
	last := 0
	for _, found := range matches {
		b.WriteString(string(s[last:found.start]))
		if isFn {
			args := append(slices.Clone(found.groups), Number(found.start), String(s))
			if found.named != nil {
				groups := m.newPlainObject()
				for _, name := range found.names {
					groups.defineOwn(name, dataProperty(found.named[name]))
				}
				args = append(args, groups)
			}
			res, err := m.callSync(replacer, Undefined, args)
			if err != nil {
				return nil, err
			}
			part, err := m.toString(res)
			if err != nil {
				return nil, err
			}
			b.WriteString(part)
		} else {
			b.WriteString(expandReplacement(template, found, s))
		}
		last = found.end
	}
	b.WriteString(string(s[last:]))
	return String(b.String()), nil
}

// expandReplacement substitutes $$, $&, $`, $', $n and $<name> in a replacement template.
func expandReplacement(template string, found *reMatch, s []rune) string {
	var b strings.Builder
	t := []rune(template)
	for i := 0; i < len(t); i++ {
		if t[i] != '$' || i+1 == len(t) {
			b.WriteRune(t[i])
			continue
		}
		next := t[i+1]
		switch {
		case next == '$':
			b.WriteRune('$')
			i++
		case next == '&':
			b.WriteString(ToString(found.groups[0]))
			i++
		case next == '`':
			b.WriteString(string(s[:found.start]))
			i++
		case next == '\'':
			b.WriteString(string(s[found.end:]))
			i++
		case next >= '0' && next <= '9':
			digits := 1
			n := int(next - '0')
			if i+2 < len(t) && t[i+2] >= '0' && t[i+2] <= '9' {
				if two := n*10 + int(t[i+2]-'0'); two > 0 && two < len(found.groups) {
					n, digits = two, 2
				}
			}
			if n == 0 || n >= len(found.groups) {
				b.WriteRune('$')
				continue
			}
			if v := found.groups[n]; v != Undefined {
				b.WriteString(ToString(v))
			}
			i += digits
		case next == '<' && found.named != nil:
			end := slices.Index(t[i+2:], '>')
			if end < 0 {
				b.WriteRune('$')
				continue
			}
			name := string(t[i+2 : i+2+end])
			if v, ok := found.named[name]; ok && v != Undefined {
				b.WriteString(ToString(v))
			}
			i += 2 + end
		default:
			b.WriteRune('$')
		}
	}
	return b.String()
}

func (m *Machine) setupNumber() {
	proto := newObject(m.intr.objectProto)
	m.intr.numberProto = proto

	ctor := m.constructor("Number", 1, proto, func(c *Call) (Value, error) {
		if len(c.Args) == 0 {
			return Number(0), nil
		}
		return m.toNumber(c.Args[0])
	}, func(c *Call) (Value, error) {
		var n Number
		if len(c.Args) > 0 {
			var err error
			if n, err = m.toNumber(c.Args[0]); err != nil {
				return nil, err
			}
		}
		return m.box(n), nil
	})
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"MAX_SAFE_INTEGER", 1<<53 - 1},
		{"MIN_SAFE_INTEGER", -(1<<53 - 1)},
		{"MAX_VALUE", math.MaxFloat64},
		{"MIN_VALUE", math.SmallestNonzeroFloat64},
		{"EPSILON", math.Nextafter(1, 2) - 1},
		{"POSITIVE_INFINITY", math.Inf(1)},
		{"NEGATIVE_INFINITY", math.Inf(-1)},
		{"NaN", math.NaN()},
	} {
		ctor.defineOwn(c.name, &property{value: Number(c.value)})
	}
	m.function(ctor, "isNaN", 1, func(c *Call) (Value, error) {
		n, ok := c.Arg(0).(Number)
		return Bool(ok && math.IsNaN(float64(n))), nil
	})
	m.function(ctor, "isFinite", 1, func(c *Call) (Value, error) {
		n, ok := c.Arg(0).(Number)
		return Bool(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})
	m.function(ctor, "isInteger", 1, func(c *Call) (Value, error) {
		n, ok := c.Arg(0).(Number)
		return Bool(ok && !math.IsInf(float64(n), 0) && float64(n) == math.Trunc(float64(n))), nil
	})
	m.function(ctor, "parseFloat", 1, m.parseFloat)
	m.function(ctor, "parseInt", 2, m.parseInt)

	thisNumber := func(c *Call, method string) (float64, error) {
		switch x := c.This.(type) {
		case Number:
			return float64(x), nil
		case *Object:
			if n, ok := x.primitive.(Number); ok {
				return float64(n), nil
			}
		}
		return 0, m.throwf(ErrType, "Number.prototype.%s requires that 'this' be a Number", method)
	}
	m.function(proto, "valueOf", 0, func(c *Call) (Value, error) {
		n, err := thisNumber(c, "valueOf")
		return Number(n), err
	})
	m.function(proto, "toString", 1, func(c *Call) (Value, error) {
		n, err := thisNumber(c, "toString")
		if err != nil {
			return nil, err
		}
		radix := 10
		if c.Arg(0) != Undefined {
			r, err := m.toNumber(c.Arg(0))
			if err != nil {
				return nil, err
			}
			radix = int(toIntegerOrInfinity(float64(r)))
			if radix < 2 || radix > 36 {
				return nil, m.throwf(ErrRange, "toString() radix must be between 2 and 36")
			}
		}
		return String(formatRadix(n, radix)), nil
	})
	m.function(proto, "toFixed", 1, func(c *Call) (Value, error) {
		n, err := thisNumber(c, "toFixed")
		if err != nil {
			return nil, err
		}
		d, err := m.toNumber(c.Arg(0))
		if err != nil {
			return nil, err
		}
		digits := toIntegerOrInfinity(float64(d))
		if digits < 0 || digits > 100 {
			return nil, m.throwf(ErrRange, "toFixed() digits argument must be between 0 and 100")
		}
		return String(toFixed(n, int(digits))), nil
	})
}

// formatRadix prints n in the given base. Fractions are written up to 52 digits.
func formatRadix(n float64, radix int) string {
	if radix == 10 || math.IsNaN(n) || math.IsInf(n, 0) {
		return numberToString(n)
	}
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	whole, frac := math.Modf(n)
	var out string
	if whole < 1<<63 {
		out = strconv.FormatUint(uint64(whole), radix)
	} else {
		out = numberToString(whole)
	}
	if frac > 0 {
		var b strings.Builder
		for i := 0; i < 52 && frac > 0; i++ {
			frac *= float64(radix)
			d, rest := math.Modf(frac)
			b.WriteString(strconv.FormatInt(int64(d), radix))
			frac = rest
		}
		out += "." + b.String()
	}
	return sign + out
}

// toFixed rounds half away from zero on the exact binary value, as the language does.
func toFixed(n float64, digits int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
		return numberToString(n)
	}
	r := new(big.Rat).SetFloat64(math.Abs(n))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	q := new(big.Int).Quo(r.Num(), r.Denom())

	s := q.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if n < 0 {
		s = "-" + s
	}
	return s
}

func (m *Machine) setupBoolean() {
	proto := newObject(m.intr.objectProto)
	m.intr.booleanProto = proto

	m.constructor("Boolean", 1, proto, func(c *Call) (Value, error) {
		return Bool(ToBoolean(c.Arg(0))), nil
	}, func(c *Call) (Value, error) {
		return m.box(Bool(ToBoolean(c.Arg(0)))), nil
	})
	thisBool := func(c *Call, method string) (Bool, error) {
		switch x := c.This.(type) {
		case Bool:
			return x, nil
		case *Object:
			if b, ok := x.primitive.(Bool); ok {
				return b, nil
			}
		}
		return false, m.throwf(ErrType, "Boolean.prototype.%s requires that 'this' be a Boolean", method)
	}
	m.function(proto, "valueOf", 0, func(c *Call) (Value, error) {
		return thisBool(c, "valueOf")
	})
	m.function(proto, "toString", 0, func(c *Call) (Value, error) {
		b, err := thisBool(c, "toString")
		if err != nil {
			return nil, err
		}
		return String(ToString(b)), nil
	})
}
