package vm

// NewObject creates an empty object inheriting from Object.prototype.
func (m *Machine) NewObject() *Object { return m.newPlainObject() }

// NewArray creates an array holding values.
func (m *Machine) NewArray(values ...Value) *Object {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = orUndefined(v)
	}
	return m.newArray(out)
}

// NewFunction wraps a Go function as a callable script value.
func (m *Machine) NewFunction(name string, length int, fn NativeFunc) *Object {
	return m.newNative(name, length, fn)
}

// NewError creates an error object of a built-in type such as "TypeError".
func (m *Machine) NewError(name, message string) *Object {
	return m.newError(name, message)
}

// Get reads a property of any value. Getters run to completion before Get returns.
func (m *Machine) Get(v Value, key string) (Value, error) {
	return m.getV(v, key)
}

// Set writes a property of an object, running setters.
func (m *Machine) Set(o *Object, key string, v Value) error {
	return m.setProp(o, key, orUndefined(v), o)
}

// ThrowValue returns an error that raises v as an exception when returned from a NativeFunc.
func ThrowValue(v Value) error {
	return &ThrowError{Value: orUndefined(v)}
}
