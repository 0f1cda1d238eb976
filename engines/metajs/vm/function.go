package vm

import (
	"fmt"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

// Closure pairs a function node with the scope it was defined in.
type Closure struct {
	fn    *ast.Function
	scope *Scope
}

// Source returns the program text of the function.
func (c *Closure) Source() string { return c.fn.Source }

type boundFunction struct {
	target *Object
	this   Value
	args   []Value
}

// NativeFunc implements a built-in or host function.
type NativeFunc func(c *Call) (Value, error)

// Call carries the receiver and arguments of a native function invocation.
type Call struct {
	m    *Machine
	This Value
	Args []Value
	// NewTarget is the constructor when invoked through new.
	NewTarget *Object
}

// Machine returns the machine the call runs on.
func (c *Call) Machine() *Machine { return c.m }

// Arg returns argument i, or undefined when absent.
func (c *Call) Arg(i int) Value {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return Undefined
}

// callSite is where an invocation originates.
type callSite struct {
	node   ast.Node
	scope  *Scope
	direct bool
}

// argumentsMap aliases the leading indices of an arguments object to parameters.
type argumentsMap struct {
	scope *Scope
	names []string
}

func (a *argumentsMap) read(i int) (Value, bool) {
	if i >= len(a.names) || a.names[i] == "" {
		return nil, false
	}
	return a.scope.vars[a.names[i]], true
}

func (a *argumentsMap) write(i int, v Value) {
	if i < len(a.names) && a.names[i] != "" {
		a.scope.vars[a.names[i]] = v
	}
}

func (a *argumentsMap) unmap(i int) {
	if i < len(a.names) {
		a.names[i] = ""
	}
}

func (o *Object) isConstructor() bool {
	switch {
	case o.bound != nil:
		return o.bound.target.isConstructor()
	case o.closure != nil:
		return !o.closure.fn.Arrow && !o.closure.fn.Generator
	default:
		return o.construct != nil
	}
}

// newClosure creates the callable object for a function node evaluated in s.
func (m *Machine) newClosure(fn *ast.Function, s *Scope) *Object {
	obj := newObject(m.intr.functionProto)
	obj.class = "Function"
	obj.closure = &Closure{fn: fn, scope: s}

	name := ""
	if fn.ID != nil {
		name = fn.ID.Name
	}
	length := 0
	for _, p := range fn.Params {
		if _, ok := p.(*ast.Identifier); !ok {
			break
		}
		length++
	}
	obj.defineOwn("length", &property{value: Number(length), configurable: true})
	obj.defineOwn("name", &property{value: String(name), configurable: true})
	if !fn.Arrow {
		proto := m.newPlainObject()
		proto.set("constructor", obj)
		obj.defineOwn("prototype", &property{value: proto, writable: true})
	}
	return obj
}

// delayApply reports an invocation to the interceptor before performing it.
func (m *Machine) delayApply(site callSite, this Value, fn *Object, args []Value, k Continuation) {
	g := m.newGate(func() { m.apply(site, this, fn, args, k) }, func(v Value) { k(normal(v)) })
	m.intercept(Event{
		Phase: PhaseApply,
		Node:  site.node,
		Call:  &CallInfo{This: this, Callee: fn, Args: args},
		Scope: site.scope,
		g:     g,
	})
	m.push(g.fire)
}

func (m *Machine) apply(site callSite, this Value, fn *Object, args []Value, k Continuation) {
	switch {
	case fn.bound != nil:
		b := fn.bound
		m.apply(callSite{node: site.node, scope: site.scope}, b.this, b.target, append(append([]Value{}, b.args...), args...), k)
	case fn.closure != nil:
		m.invoke(fn, this, args, site.scope, k)
	case fn == m.intr.eval:
		m.evalCode(site, args, k)
	default:
		v, err := fn.native(&Call{m: m, This: this, Args: args})
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		k(normal(orUndefined(v)))
	}
}

func (m *Machine) construct(site callSite, ctor *Object, args []Value, k Continuation) {
	switch {
	case ctor.bound != nil:
		b := ctor.bound
		m.construct(site, b.target, append(append([]Value{}, b.args...), args...), k)
	case ctor.closure != nil:
		protoValue, err := m.getProp(ctor, "prototype", ctor)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		proto, ok := protoValue.(*Object)
		if !ok {
			proto = m.intr.objectProto
		}
		obj := newObject(proto)
		m.delayApply(site, obj, ctor, args, func(c Completion) {
			if c.Kind != Normal {
				k(c)
				return
			}
			if result, ok := c.Value.(*Object); ok {
				k(normal(result))
				return
			}
			k(normal(obj))
		})
	default:
		v, err := ctor.construct(&Call{m: m, This: Undefined, Args: args, NewTarget: ctor})
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		k(normal(orUndefined(v)))
	}
}

// invoke runs a closure in a fresh function scope chained to its defining scope.
func (m *Machine) invoke(fnObj *Object, this Value, args []Value, caller *Scope, k Continuation) {
	cl := fnObj.closure
	f := cl.fn
	scope := newScope(FunctionScope, cl.scope)
	scope.caller = caller
	scope.fn = fnObj

	var argsObj *Object
	if !f.Arrow {
		if isNullish(this) {
			this = m.thisOf(cl.scope)
		}
		scope.this = this
		argsObj = m.newArguments(fnObj, args)
		scope.vars["arguments"] = argsObj
		if f.ID != nil {
			scope.vars[f.ID.Name] = fnObj
		}
	}

	m.bindParams(f, args, scope, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		if argsObj != nil && f.SimpleParams() {
			names := make([]string, min(len(args), len(f.Params)))
			for i := range names {
				names[i] = f.Params[i].(*ast.Identifier).Name
			}
			// A later parameter with the same name wins, so only its index stays mapped.
			seen := map[string]bool{}
			for i := len(names) - 1; i >= 0; i-- {
				if seen[names[i]] {
					names[i] = ""
					continue
				}
				seen[names[i]] = true
			}
			argsObj.args = &argumentsMap{scope: scope, names: names}
		}
		if f.Expression {
			m.evaluate(f.Body, scope, func(c Completion) {
				if c.Kind == Normal {
					c = normal(orUndefined(c.Value))
				}
				k(m.callResult(c))
			})
			return
		}
		m.evaluate(f.Body, scope, func(c Completion) {
			if c.Kind == Normal {
				c = normal(Undefined)
			}
			k(m.callResult(c))
		})
	})
}

// callResult converts the completion of a function body into the completion of the call.
func (m *Machine) callResult(c Completion) Completion {
	switch c.Kind {
	case Normal:
		c.Ref = nil
		return c
	case Return:
		return normal(c.Value)
	case Yield:
		return Completion{Kind: Fault, Err: fmt.Errorf("%w: generators are not supported", ErrUnsupported)}
	case Break, Continue:
		return Completion{Kind: Fault, Err: fmt.Errorf("%w: %s outside of a loop", ErrSyntax, c.Kind)}
	default:
		return c
	}
}

func (m *Machine) bindParams(f *ast.Function, args []Value, scope *Scope, k Continuation) {
	var step func(i int)
	step = func(i int) {
		if i == len(f.Params) {
			k(normal(nil))
			return
		}
		p := f.Params[i]
		var v Value = Undefined
		if rest, ok := p.(*ast.RestElement); ok {
			var tail []Value
			if i < len(args) {
				tail = append(tail, args[i:]...)
			}
			v = m.newArray(tail)
			p = rest.Argument
		} else if i < len(args) {
			v = args[i]
		}
		if id, ok := p.(*ast.Identifier); ok {
			m.intercept(Event{Phase: PhaseBind, Node: p, Name: id.Name, Value: v, Scope: scope})
		}
		m.bindTarget(p, v, scope, bindParam, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			step(i + 1)
		})
	}
	step(0)
}

func (m *Machine) newArguments(callee *Object, args []Value) *Object {
	obj := newObject(m.intr.objectProto)
	obj.class = "Arguments"
	for i, a := range args {
		obj.defineOwn(fmt.Sprint(i), dataProperty(a))
	}
	obj.set("length", Number(len(args)))
	obj.set("callee", callee)
	return obj
}

// callSync invokes fn from Go code and runs it to completion on a nested drain.
func (m *Machine) callSync(fn Value, this Value, args []Value) (Value, error) {
	obj, ok := fn.(*Object)
	if !ok || !obj.Callable() {
		return nil, m.throwf(ErrType, "%s is not a function", TypeOf(fn))
	}
	if obj.native != nil && obj != m.intr.eval {
		v, err := obj.native(&Call{m: m, This: orUndefined(this), Args: args})
		return orUndefined(v), err
	}
	c, err := m.runToCompletion(func(k Continuation) {
		m.apply(callSite{scope: m.root}, orUndefined(this), obj, args, k)
	})
	if err != nil {
		return nil, err
	}
	return m.completionValue(c)
}

// constructSync is callSync for new.
func (m *Machine) constructSync(ctor *Object, args []Value) (Value, error) {
	if !ctor.isConstructor() {
		return nil, m.throwf(ErrType, "%s is not a constructor", TypeOf(ctor))
	}
	c, err := m.runToCompletion(func(k Continuation) {
		m.construct(callSite{scope: m.root}, ctor, args, k)
	})
	if err != nil {
		return nil, err
	}
	return m.completionValue(c)
}

// completionValue turns a call completion back into Go results for native callers.
func (m *Machine) completionValue(c Completion) (Value, error) {
	switch c.Kind {
	case Normal, Return:
		return orUndefined(c.Value), nil
	case Throw:
		return nil, &ThrowError{Value: c.Value, cause: c.Err}
	default:
		if c.Err != nil {
			return nil, c.Err
		}
		return nil, fmt.Errorf("%w: unexpected %s completion", ErrUnsupported, c.Kind)
	}
}

// evalCode runs eval. Direct calls evaluate in a block scope under the caller's scope;
// indirect calls evaluate under the global scope.
func (m *Machine) evalCode(site callSite, args []Value, k Continuation) {
	src, ok := argOf(args, 0).(String)
	if !ok {
		k(normal(argOf(args, 0)))
		return
	}
	if m.parse == nil {
		k(Completion{Kind: Fault, Err: ErrNoParser})
		return
	}
	program, err := m.parse(string(src))
	if err != nil {
		k(m.throwCompletion(m.throwf(ErrSyntax, "%s", err.Error())))
		return
	}
	ast.AttachSource(program, string(src))

	parent := m.root
	if site.direct && site.scope != nil {
		parent = site.scope
	}
	m.evaluate(program, newScope(BlockScope, parent), func(c Completion) {
		if c.Kind == Normal {
			c = normal(orUndefined(c.Value))
		}
		k(c)
	})
}

func argOf(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
