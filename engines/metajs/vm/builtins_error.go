package vm

import (
	"fmt"
	"strings"
)

var errorTypes = []string{"TypeError", "ReferenceError", "SyntaxError", "RangeError", "EvalError", "URIError"}

func (m *Machine) setupErrors() {
	m.intr.errorProtos = map[string]*Object{}
	base := m.errorType("Error", m.intr.objectProto)
	m.function(base, "toString", 0, func(c *Call) (Value, error) {
		o, ok := c.This.(*Object)
		if !ok {
			return nil, m.throwf(ErrType, "Error.prototype.toString called on non-object")
		}
		nameV, err := m.getProp(o, "name", o)
		if err != nil {
			return nil, err
		}
		msgV, err := m.getProp(o, "message", o)
		if err != nil {
			return nil, err
		}
		name, msg := "Error", ""
		if nameV != Undefined {
			if name, err = m.toString(nameV); err != nil {
				return nil, err
			}
		}
		if msgV != Undefined {
			if msg, err = m.toString(msgV); err != nil {
				return nil, err
			}
		}
		switch {
		case name == "":
			return String(msg), nil
		case msg == "":
			return String(name), nil
		}
		return String(name + ": " + msg), nil
	})
	for _, name := range errorTypes {
		m.errorType(name, base)
	}
}

// errorType installs an error constructor and returns its prototype.
func (m *Machine) errorType(name string, parent *Object) *Object {
	proto := newObject(parent)
	proto.set("name", String(name))
	proto.set("message", emptyStr)
	m.intr.errorProtos[name] = proto

	create := func(c *Call) (Value, error) {
		obj := newObject(proto)
		obj.class = "Error"
		if msg := c.Arg(0); msg != Undefined {
			s, err := m.toString(msg)
			if err != nil {
				return nil, err
			}
			obj.set("message", String(s))
		}
		if opts, ok := c.Arg(1).(*Object); ok && opts.hasProperty("cause") {
			cause, err := m.getProp(opts, "cause", opts)
			if err != nil {
				return nil, err
			}
			obj.set("cause", cause)
		}
		return obj, nil
	}
	m.constructor(name, 1, proto, create, nil)
	return proto
}

// newError creates an error object of the named built-in type.
func (m *Machine) newError(name, msg string) *Object {
	proto, ok := m.intr.errorProtos[name]
	if !ok {
		proto = m.intr.errorProtos["Error"]
	}
	obj := newObject(proto)
	obj.class = "Error"
	obj.set("message", String(msg))
	return obj
}

func (m *Machine) setupConsole() {
	console := m.newPlainObject()
	console.class = "console"
	m.global.set("console", console)

	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		m.function(console, level, 0, func(c *Call) (Value, error) {
			parts := make([]string, len(c.Args))
			for i, a := range c.Args {
				parts[i] = Inspect(a)
			}
			line := strings.Join(parts, " ")
			m.logger.Debug("console."+level, "message", line)
			if _, err := fmt.Fprintln(m.stdout, line); err != nil {
				return nil, fmt.Errorf("console.%s: %w", level, err)
			}
			return Undefined, nil
		})
	}
}
