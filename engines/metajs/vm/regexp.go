package vm

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// regexpMatchTimeout bounds a single match attempt against catastrophic backtracking.
const regexpMatchTimeout = 5 * time.Second

type regexpState struct {
	source string
	flags  string
	re     *regexp2.Regexp
	global bool
	sticky bool
}

func (r *regexpState) String() string {
	return "/" + r.source + "/" + r.flags
}

// reMatch is one match located by rune offsets.
type reMatch struct {
	start, end int
	// groups holds the whole match followed by the captures; unmatched captures are undefined.
	groups []Value
	named  map[string]Value
	names  []string
}

func (m *Machine) newRegExp(pattern, flags string) (*Object, error) {
	state := &regexpState{source: pattern, flags: flags}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	dotAll := false
	for i, f := range flags {
		if strings.ContainsRune(flags[:i], f) {
			return nil, m.throwf(ErrSyntax, "Invalid flags supplied to RegExp constructor '%s'", flags)
		}
		switch f {
		case 'g':
			state.global = true
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			dotAll = true
		case 'y':
			state.sticky = true
		case 'u':
		default:
			return nil, m.throwf(ErrSyntax, "Invalid flags supplied to RegExp constructor '%s'", flags)
		}
	}
	if dotAll {
		// the ECMAScript option cannot be combined with Singleline
		opts = opts&^regexp2.ECMAScript | regexp2.Singleline
	}
	if pattern == "" {
		state.source = "(?:)"
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, m.throwf(ErrSyntax, "Invalid regular expression: /%s/: %v", pattern, err)
	}
	re.MatchTimeout = regexpMatchTimeout
	state.re = re

	obj := newObject(m.intr.regexpProto)
	obj.class = "RegExp"
	obj.re = state
	obj.defineOwn("lastIndex", &property{value: Number(0), writable: true})
	obj.defineOwn("source", &property{value: String(state.source)})
	obj.defineOwn("flags", &property{value: String(flags)})
	obj.defineOwn("global", &property{value: Bool(state.global)})
	obj.defineOwn("ignoreCase", &property{value: Bool(opts&regexp2.IgnoreCase != 0)})
	obj.defineOwn("multiline", &property{value: Bool(opts&regexp2.Multiline != 0)})
	obj.defineOwn("sticky", &property{value: Bool(state.sticky)})
	return obj, nil
}

// findAt returns the first match at or after start, or nil.
func (m *Machine) findAt(r *regexpState, runes []rune, start int) (*reMatch, error) {
	if start > len(runes) {
		return nil, nil
	}
	found, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, m.throwf(err, "%s: %v", r, err)
	}
	if found == nil || (r.sticky && found.Index != start) {
		return nil, nil
	}
	res := &reMatch{start: found.Index, end: found.Index + found.Length}
	for i, g := range found.Groups() {
		var v Value = Undefined
		if len(g.Captures) > 0 {
			v = String(g.String())
		}
		res.groups = append(res.groups, v)
		if i > 0 && g.Name != "" && !isDigits(g.Name) {
			if res.named == nil {
				res.named = map[string]Value{}
			}
			res.named[g.Name] = v
			res.names = append(res.names, g.Name)
		}
	}
	return res, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m *Machine) lastIndex(o *Object) (int, error) {
	v, err := m.getProp(o, "lastIndex", o)
	if err != nil {
		return 0, err
	}
	n, err := m.toNumber(v)
	if err != nil {
		return 0, err
	}
	return int(max(0, min(toIntegerOrInfinity(float64(n)), maxArrayGrowth))), nil
}

// exec runs one match honoring lastIndex for global and sticky expressions.
func (m *Machine) exec(o *Object, runes []rune) (*reMatch, error) {
	r := o.re
	start := 0
	tracking := r.global || r.sticky
	if tracking {
		var err error
		if start, err = m.lastIndex(o); err != nil {
			return nil, err
		}
	}
	found, err := m.findAt(r, runes, start)
	if err != nil {
		return nil, err
	}
	if tracking {
		next := 0
		if found != nil {
			next = found.end
		}
		if err := m.setProp(o, "lastIndex", Number(next), o); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// matchArray builds the array returned by exec and non-global match.
func (m *Machine) matchArray(found *reMatch, input string) *Object {
	arr := m.newArray(found.groups)
	arr.defineOwn("index", dataProperty(Number(found.start)))
	arr.defineOwn("input", dataProperty(String(input)))
	var groups Value = Undefined
	if found.named != nil {
		g := newObject(nil)
		for _, name := range found.names {
			g.defineOwn(name, dataProperty(found.named[name]))
		}
		groups = g
	}
	arr.defineOwn("groups", dataProperty(groups))
	return arr
}

// allMatches collects every match of a global expression and resets lastIndex.
func (m *Machine) allMatches(o *Object, runes []rune) ([]*reMatch, error) {
	var out []*reMatch
	pos := 0
	for pos <= len(runes) {
		found, err := m.findAt(o.re, runes, pos)
		if err != nil {
			return nil, err
		}
		if found == nil {
			break
		}
		out = append(out, found)
		pos = found.end
		if found.end == found.start {
			pos++
		}
	}
	return out, m.setProp(o, "lastIndex", Number(0), o)
}

func (m *Machine) thisRegExp(c *Call, method string) (*Object, error) {
	if o, ok := c.This.(*Object); ok && o.re != nil {
		return o, nil
	}
	return nil, m.throwf(ErrType, "RegExp.prototype.%s called on incompatible receiver %s", method, Inspect(c.This))
}

func (m *Machine) setupRegExp() {
	proto := newObject(m.intr.objectProto)
	m.intr.regexpProto = proto

	m.constructor("RegExp", 2, proto, func(c *Call) (Value, error) {
		pattern, flags := "", ""
		switch p := c.Arg(0).(type) {
		case *Object:
			if p.re != nil {
				if c.Arg(1) == Undefined {
					if c.NewTarget == nil {
						return p, nil
					}
					return m.newRegExp(p.re.source, p.re.flags)
				}
				pattern = p.re.source
				break
			}
			s, err := m.toString(p)
			if err != nil {
				return nil, err
			}
			pattern = s
		default:
			if p != Undefined {
				pattern = ToString(p)
			}
		}
		if c.Arg(1) != Undefined {
			f, err := m.toString(c.Arg(1))
			if err != nil {
				return nil, err
			}
			flags = f
		}
		return m.newRegExp(pattern, flags)
	}, nil)

	m.function(proto, "exec", 1, func(c *Call) (Value, error) {
		o, err := m.thisRegExp(c, "exec")
		if err != nil {
			return nil, err
		}
		s, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		found, err := m.exec(o, []rune(s))
		if err != nil || found == nil {
			return Null, err
		}
		return m.matchArray(found, s), nil
	})
	m.function(proto, "test", 1, func(c *Call) (Value, error) {
		o, err := m.thisRegExp(c, "test")
		if err != nil {
			return nil, err
		}
		s, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		found, err := m.exec(o, []rune(s))
		return Bool(found != nil), err
	})
	m.function(proto, "toString", 0, func(c *Call) (Value, error) {
		o, err := m.thisRegExp(c, "toString")
		if err != nil {
			return nil, err
		}
		return String(o.re.String()), nil
	})
}
