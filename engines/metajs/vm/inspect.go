package vm

import (
	"strconv"
	"strings"
)

const inspectDepth = 2

// Inspect renders a value for display without running script code. Strings at the top
// level print as-is; nested strings are quoted.
func Inspect(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	var b strings.Builder
	inspectValue(&b, v, 0, map[*Object]bool{})
	return b.String()
}

func inspectValue(b *strings.Builder, v Value, depth int, seen map[*Object]bool) {
	switch x := v.(type) {
	case nil:
		b.WriteString("undefined")
	case String:
		b.WriteString(quote(string(x)))
	case *Object:
		inspectObject(b, x, depth, seen)
	default:
		b.WriteString(ToString(v))
	}
}

func quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + strings.ReplaceAll(s, "\n", `\n`) + "'"
	}
	return strconv.Quote(s)
}

func inspectObject(b *strings.Builder, o *Object, depth int, seen map[*Object]bool) {
	if seen[o] {
		b.WriteString("[Circular]")
		return
	}
	switch {
	case o.Callable():
		name, _ := o.Own("name")
		if n, ok := name.(String); ok && n != "" {
			b.WriteString("[Function: " + string(n) + "]")
		} else {
			b.WriteString("[Function (anonymous)]")
		}
		return
	case o.re != nil:
		b.WriteString(o.re.String())
		return
	case o.primitive != nil:
		b.WriteString("[" + o.class + ": ")
		inspectValue(b, o.primitive, depth, seen)
		b.WriteString("]")
		return
	case o.class == "Error":
		b.WriteString(describeThrown(o))
		return
	}
	if depth > inspectDepth {
		if o.isArray {
			b.WriteString("[Array]")
		} else {
			b.WriteString("[Object]")
		}
		return
	}

	seen[o] = true
	defer delete(seen, o)

	var parts []string
	if o.isArray {
		holes := 0
		flush := func() {
			if holes == 0 {
				return
			}
			word := "items"
			if holes == 1 {
				word = "item"
			}
			parts = append(parts, "<"+strconv.Itoa(holes)+" empty "+word+">")
			holes = 0
		}
		for _, el := range o.array {
			if el == nil {
				holes++
				continue
			}
			flush()
			var eb strings.Builder
			inspectValue(&eb, el, depth+1, seen)
			parts = append(parts, eb.String())
		}
		flush()
	}
	for _, key := range o.keys {
		p := o.props[key]
		if !p.enumerable {
			continue
		}
		var eb strings.Builder
		eb.WriteString(inspectKey(key))
		eb.WriteString(": ")
		switch {
		case p.accessor && p.getter != nil && p.setter != nil:
			eb.WriteString("[Getter/Setter]")
		case p.accessor && p.getter != nil:
			eb.WriteString("[Getter]")
		case p.accessor:
			eb.WriteString("[Setter]")
		default:
			inspectValue(&eb, p.value, depth+1, seen)
		}
		parts = append(parts, eb.String())
	}

	open, end := "{", "}"
	if o.isArray {
		open, end = "[", "]"
	}
	if len(parts) == 0 {
		b.WriteString(open + end)
		return
	}
	b.WriteString(open + " " + strings.Join(parts, ", ") + " " + end)
}

func inspectKey(key string) string {
	for i, r := range key {
		ident := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ident {
			return quote(key)
		}
	}
	if key == "" {
		return "''"
	}
	return key
}
