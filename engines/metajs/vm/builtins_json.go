package vm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

func (m *Machine) setupJSON() {
	obj := m.newPlainObject()
	obj.class = "JSON"
	m.global.set("JSON", obj)

	m.function(obj, "parse", 2, func(c *Call) (Value, error) {
		text, err := m.toString(c.Arg(0))
		if err != nil {
			return nil, err
		}
		v, err := m.parseJSON(text)
		if err != nil {
			return nil, err
		}
		if reviver, ok := c.Arg(1).(*Object); ok && reviver.Callable() {
			root := m.newPlainObject()
			root.defineOwn("", dataProperty(v))
			return m.revive(reviver, root, "")
		}
		return v, nil
	})
	m.function(obj, "stringify", 3, m.stringify)
}

// parseJSON decodes text into script values, keeping object key order.
func (m *Machine) parseJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := m.decodeJSON(dec)
	if err == nil {
		if _, extra := dec.Token(); !errors.Is(extra, io.EOF) {
			err = fmt.Errorf("unexpected data after JSON value")
		}
	}
	if err != nil {
		return nil, m.throwf(ErrSyntax, "%s", jsonError(err))
	}
	return v, nil
}

func jsonError(err error) string {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "Unexpected end of JSON input"
	}
	return err.Error()
}

func (m *Machine) decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := m.newPlainObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := m.decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				obj.defineOwn(key, dataProperty(v))
			}
			_, err := dec.Token()
			return obj, err
		case '[':
			var items []Value
			for dec.More() {
				v, err := m.decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			_, err := dec.Token()
			return m.newArray(items), err
		}
		return nil, fmt.Errorf("unexpected %q", t)
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	default:
		return Null, nil
	}
}

func (m *Machine) revive(reviver, holder *Object, key string) (Value, error) {
	v, err := m.getProp(holder, key, holder)
	if err != nil {
		return nil, err
	}
	if o, ok := v.(*Object); ok {
		for _, k := range o.Keys() {
			nv, err := m.revive(reviver, o, k)
			if err != nil {
				return nil, err
			}
			if nv == Undefined {
				o.deleteOwn(k)
				continue
			}
			o.defineOwn(k, dataProperty(nv))
		}
	}
	return m.callSync(reviver, holder, []Value{String(key), v})
}

type jsonWriter struct {
	m        *Machine
	replacer *Object
	allow    map[string]bool
	order    []string
	indent   string
	stack    []*Object
}

func (m *Machine) stringify(c *Call) (Value, error) {
	w := &jsonWriter{m: m}
	if r, ok := c.Arg(1).(*Object); ok {
		switch {
		case r.Callable():
			w.replacer = r
		case r.isArray:
			w.allow = map[string]bool{}
			for _, item := range r.Elements() {
				switch item.(type) {
				case String, Number:
					key := ToString(item)
					if !w.allow[key] {
						w.allow[key] = true
						w.order = append(w.order, key)
					}
				}
			}
		}
	}
	switch s := c.Arg(2).(type) {
	case Number:
		w.indent = strings.Repeat(" ", int(max(0, min(10, toIntegerOrInfinity(float64(s))))))
	case String:
		w.indent = string([]rune(string(s))[:min(10, len([]rune(string(s))))])
	}

	root := m.newPlainObject()
	root.defineOwn("", dataProperty(c.Arg(0)))
	var b strings.Builder
	ok, err := w.property(&b, root, "", c.Arg(0), "")
	if err != nil || !ok {
		return Undefined, err
	}
	return String(b.String()), nil
}

// property writes one value. It reports false when the value serializes to nothing.
func (w *jsonWriter) property(b *strings.Builder, holder *Object, key string, v Value, prefix string) (bool, error) {
	m := w.m
	if _, ok := v.(*Object); ok {
		toJSON, err := m.getV(v, "toJSON")
		if err != nil {
			return false, err
		}
		if fn, ok := toJSON.(*Object); ok && fn.Callable() {
			if v, err = m.callSync(fn, v, []Value{String(key)}); err != nil {
				return false, err
			}
		}
	}
	if w.replacer != nil {
		var err error
		if v, err = m.callSync(w.replacer, holder, []Value{String(key), v}); err != nil {
			return false, err
		}
	}
	if o, ok := v.(*Object); ok && o.primitive != nil {
		v = o.primitive
	}

	switch x := v.(type) {
	case String:
		b.WriteString(jsonQuote(string(x)))
	case Number:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			b.WriteString("null")
		} else {
			b.WriteString(numberToString(float64(x)))
		}
	case Bool:
		b.WriteString(ToString(x))
	case *Object:
		if x.Callable() {
			return false, nil
		}
		for _, seen := range w.stack {
			if seen == x {
				return false, m.throwf(ErrType, "Converting circular structure to JSON")
			}
		}
		w.stack = append(w.stack, x)
		defer func() { w.stack = w.stack[:len(w.stack)-1] }()
		if x.isArray {
			return true, w.array(b, x, prefix)
		}
		return true, w.object(b, x, prefix)
	default:
		if v == Null {
			b.WriteString("null")
			return true, nil
		}
		return false, nil
	}
	return true, nil
}

func (w *jsonWriter) array(b *strings.Builder, a *Object, prefix string) error {
	if len(a.array) == 0 {
		b.WriteString("[]")
		return nil
	}
	inner := prefix + w.indent
	b.WriteByte('[')
	for i, v := range a.Elements() {
		if i > 0 {
			b.WriteByte(',')
		}
		w.newline(b, inner)
		ok, err := w.property(b, a, strconv.Itoa(i), v, inner)
		if err != nil {
			return err
		}
		if !ok {
			b.WriteString("null")
		}
	}
	w.newline(b, prefix)
	b.WriteByte(']')
	return nil
}

func (w *jsonWriter) object(b *strings.Builder, o *Object, prefix string) error {
	keys := o.Keys()
	if w.allow != nil {
		keys = keys[:0:0]
		for _, k := range w.order {
			if o.hasProperty(k) {
				keys = append(keys, k)
			}
		}
	}
	inner := prefix + w.indent
	wrote := false
	b.WriteByte('{')
	for _, k := range keys {
		v, err := w.m.getProp(o, k, o)
		if err != nil {
			return err
		}
		var member strings.Builder
		ok, err := w.property(&member, o, k, v, inner)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if wrote {
			b.WriteByte(',')
		}
		wrote = true
		w.newline(b, inner)
		b.WriteString(jsonQuote(k))
		b.WriteByte(':')
		if w.indent != "" {
			b.WriteByte(' ')
		}
		b.WriteString(member.String())
	}
	if wrote {
		w.newline(b, prefix)
	}
	b.WriteByte('}')
	return nil
}

func (w *jsonWriter) newline(b *strings.Builder, prefix string) {
	if w.indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(prefix)
}

func jsonQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
