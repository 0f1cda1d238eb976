package vm

import "slices"

// ScopeKind distinguishes the scope records of the chain.
type ScopeKind uint8

const (
	GlobalScope ScopeKind = iota
	FunctionScope
	BlockScope
	CatchScope
	WithScope
)

func (k ScopeKind) String() string {
	switch k {
	case GlobalScope:
		return "global"
	case FunctionScope:
		return "function"
	case BlockScope:
		return "block"
	case CatchScope:
		return "catch"
	default:
		return "with"
	}
}

// Scope is one record of the scope chain. Its bindings live either in a map or, for the
// global scope and with statements, in an object.
type Scope struct {
	kind   ScopeKind
	vars   map[string]Value
	consts map[string]bool
	// lexical marks let, const and block function names of var scopes.
	lexical map[string]bool
	object  *Object

	prev *Scope
	// caller is the scope of the call site; it is never consulted for name lookup.
	caller *Scope
	// this is set on function and global scopes only. Arrow function scopes leave it nil.
	this Value
	fn   *Object
}

func newScope(kind ScopeKind, prev *Scope) *Scope {
	return &Scope{kind: kind, vars: map[string]Value{}, prev: prev}
}

func newObjectScope(kind ScopeKind, obj *Object, prev *Scope) *Scope {
	return &Scope{kind: kind, object: obj, prev: prev}
}

// Kind returns the scope kind.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Parent returns the lexically enclosing scope, or nil for the global scope.
func (s *Scope) Parent() *Scope { return s.prev }

// Caller returns the call-site scope of a function scope.
func (s *Scope) Caller() *Scope { return s.caller }

// Names returns the names bound directly in this scope, sorted.
func (s *Scope) Names() []string {
	var names []string
	if s.object != nil {
		names = s.object.ownKeys()
	} else {
		for k := range s.vars {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}

// Get resolves name along the chain without running any script code; accessor
// properties of object-backed scopes read as undefined.
func (s *Scope) Get(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.prev {
		if cur.object != nil {
			if cur.object.hasProperty(name) {
				v, _ := lookupData(cur.object, name)
				return v, true
			}
			continue
		}
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) owns(name string) bool {
	if s.object != nil {
		return s.object.hasProperty(name)
	}
	_, ok := s.vars[name]
	return ok
}

// varScope is the nearest function or global scope.
func (s *Scope) varScope() *Scope {
	for s.kind == BlockScope || s.kind == CatchScope || s.kind == WithScope {
		s = s.prev
	}
	return s
}

// declare binds a var-like name in the nearest var scope. A nil value declares the
// name without overwriting an existing binding.
func (m *Machine) declare(s *Scope, name string, v Value) {
	m.bind(s.varScope(), name, v)
}

func (m *Machine) bind(t *Scope, name string, v Value) {
	if t.object != nil {
		if t.object.hasOwn(name) {
			if v != nil {
				_ = t.object.writeOwn(name, v)
			}
			return
		}
		t.object.defineOwn(name, &property{value: orUndefined(v), writable: true, enumerable: true})
		return
	}
	if _, ok := t.vars[name]; ok && v == nil {
		return
	}
	t.vars[name] = orUndefined(v)
}

// declareLexical binds name in s itself.
func (m *Machine) declareLexical(s *Scope, name string, v Value, constant bool) {
	if s.kind == GlobalScope || s.kind == FunctionScope {
		if s.lexical == nil {
			s.lexical = map[string]bool{}
		}
		s.lexical[name] = true
	}
	if constant {
		if s.consts == nil {
			s.consts = map[string]bool{}
		}
		s.consts[name] = true
	}
	if s.object != nil {
		s.object.defineOwn(name, &property{value: orUndefined(v), writable: true, enumerable: true})
		return
	}
	s.vars[name] = orUndefined(v)
}

// declareFunction binds a function declared in a nested block in the var scope as well,
// unless a lexical binding of the same name sits between the block and the var scope.
func (m *Machine) declareFunction(s *Scope, name string, fn *Object) {
	cur := s
	for cur.kind == BlockScope || cur.kind == CatchScope || cur.kind == WithScope {
		if cur != s && cur.kind != WithScope && cur.owns(name) {
			return
		}
		cur = cur.prev
	}
	if cur.lexical[name] {
		return
	}
	m.bind(cur, name, fn)
}

func (m *Machine) resolve(s *Scope, name string) *Scope {
	for cur := s; cur != nil; cur = cur.prev {
		if cur.owns(name) {
			return cur
		}
	}
	return nil
}

// lookup reads name and reports the scope that held it.
func (m *Machine) lookup(s *Scope, name string) (Value, *Reference, error) {
	t := m.resolve(s, name)
	if t == nil {
		return nil, nil, m.throwf(ErrUnresolvedReference, "%s is not defined", name)
	}
	v, err := m.readBinding(t, name)
	if err != nil {
		return nil, nil, err
	}
	return v, &Reference{Scope: t, Name: name}, nil
}

func (m *Machine) readBinding(t *Scope, name string) (Value, error) {
	if t.object != nil {
		return m.getProp(t.object, name, t.object)
	}
	return t.vars[name], nil
}

func (m *Machine) writeBinding(t *Scope, name string, v Value) error {
	if t.consts[name] {
		return m.throwf(ErrType, "Assignment to constant variable '%s'", name)
	}
	if t.object != nil {
		return m.setProp(t.object, name, v, t.object)
	}
	t.vars[name] = v
	return nil
}

// assign writes to the first scope holding name. When no scope holds it and create is set,
// the sloppy policy creates a global; the strict policy raises a ReferenceError.
func (m *Machine) assign(s *Scope, name string, v Value, create bool) error {
	t := m.resolve(s, name)
	if t == nil {
		if !create || m.strict {
			return m.throwf(ErrUnresolvedReference, "%s is not defined", name)
		}
		m.global.defineOwn(name, dataProperty(v))
		return nil
	}
	return m.writeBinding(t, name, v)
}

func (m *Machine) thisOf(s *Scope) Value {
	for cur := s; cur != nil; cur = cur.prev {
		if cur.this != nil {
			return cur.this
		}
	}
	return Undefined
}
