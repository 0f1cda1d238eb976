package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedReference is raised as a ReferenceError when a name is not bound in any scope.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrType is raised as a TypeError, e.g. calling a non-callable or reading a property of null.
	ErrType = errors.New("type error")
	// ErrSyntax is raised as a SyntaxError by eval and JSON.parse.
	ErrSyntax = errors.New("syntax error")
	// ErrRange is raised as a RangeError.
	ErrRange = errors.New("range error")

	// ErrNotImplemented is a fatal fault for node types the evaluator does not handle.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnsupported is a fatal fault for recognized but unsupported behavior, such as
	// a yield reaching a function call boundary.
	ErrUnsupported = errors.New("unsupported")
	// ErrStalled is returned when evaluation cannot make progress: no task is pending,
	// nothing is paused, and the program has not completed.
	ErrStalled = errors.New("evaluation stalled")
	// ErrNilProgram is returned by Run when no program is given.
	ErrNilProgram = errors.New("program is nil")
	// ErrNoParser is returned when source text must be parsed but no parser is configured.
	ErrNoParser = errors.New("no parser configured")
)

// errorNames maps the catchable sentinels to the constructor of the thrown error object.
var errorNames = []struct {
	err  error
	name string
}{
	{ErrUnresolvedReference, "ReferenceError"},
	{ErrType, "TypeError"},
	{ErrSyntax, "SyntaxError"},
	{ErrRange, "RangeError"},
}

// ThrowError is an exception that propagated out of the program.
type ThrowError struct {
	// Value is the thrown value.
	Value Value
	cause error
}

func (e *ThrowError) Error() string {
	return "uncaught exception: " + describeThrown(e.Value)
}

// Unwrap returns the sentinel for exceptions raised by the machine itself.
func (e *ThrowError) Unwrap() error { return e.cause }

// describeThrown renders a thrown value without running script code.
func describeThrown(v Value) string {
	if o, ok := v.(*Object); ok {
		name, _ := lookupData(o, "name")
		msg, _ := lookupData(o, "message")
		if n, ok := name.(String); ok {
			if m, ok := msg.(String); ok && m != "" {
				return fmt.Sprintf("%s: %s", n, m)
			}
			return string(n)
		}
	}
	return Inspect(v)
}

// lookupData reads a data property along the prototype chain without calling getters.
func lookupData(o *Object, key string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if p, ok := cur.getOwnProperty(key); ok {
			if p.accessor {
				return Undefined, false
			}
			return p.value, true
		}
	}
	return Undefined, false
}

// throwf builds a catchable exception whose error object is chosen from sentinel.
func (m *Machine) throwf(sentinel error, format string, args ...any) *ThrowError {
	name := "Error"
	for _, en := range errorNames {
		if errors.Is(sentinel, en.err) {
			name = en.name
			break
		}
	}
	return &ThrowError{Value: m.newError(name, fmt.Sprintf(format, args...)), cause: sentinel}
}

// throwCompletion converts a Go error into a completion. Exceptions and catchable
// sentinels become Throw completions; anything else is a fatal Fault.
func (m *Machine) throwCompletion(err error) Completion {
	var te *ThrowError
	if errors.As(err, &te) {
		return Completion{Kind: Throw, Value: te.Value, Err: te.cause}
	}
	for _, en := range errorNames {
		if errors.Is(err, en.err) {
			return Completion{Kind: Throw, Value: m.newError(en.name, trimSentinel(err, en.err)), Err: en.err}
		}
	}
	return Completion{Kind: Fault, Err: err}
}

// trimSentinel drops the "sentinel: " prefix from wrapped error messages.
func trimSentinel(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
