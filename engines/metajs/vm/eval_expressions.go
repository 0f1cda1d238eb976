package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

func (m *Machine) evalIdentifier(x *ast.Identifier, s *Scope, k Continuation) {
	v, ref, err := m.lookup(s, x.Name)
	if err != nil {
		k(m.throwCompletion(err))
		return
	}
	k(Completion{Kind: Normal, Value: orUndefined(v), Ref: ref})
}

func (m *Machine) evalLiteral(x *ast.Literal, k Continuation) {
	if x.Regex != nil {
		re, err := m.newRegExp(x.Regex.Pattern, x.Regex.Flags)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		k(normal(re))
		return
	}
	switch v := x.Value.(type) {
	case nil:
		k(normal(Null))
	case bool:
		k(normal(Bool(v)))
	case float64:
		k(normal(Number(v)))
	case string:
		k(normal(String(v)))
	default:
		k(normal(Undefined))
	}
}

func (m *Machine) evalTemplate(x *ast.TemplateLiteral, s *Scope, k Continuation) {
	m.evalList(x.Expressions, s, func(values []Value, ab *Completion) {
		if ab != nil {
			k(*ab)
			return
		}
		var b strings.Builder
		for i, q := range x.Quasis {
			b.WriteString(q)
			if i < len(values) {
				str, err := m.toString(values[i])
				if err != nil {
					k(m.throwCompletion(err))
					return
				}
				b.WriteString(str)
			}
		}
		k(normal(String(b.String())))
	})
}

func (m *Machine) evalArray(x *ast.ArrayExpression, s *Scope, k Continuation) {
	m.evalList(x.Elements, s, func(values []Value, ab *Completion) {
		if ab != nil {
			k(*ab)
			return
		}
		k(normal(m.newArray(values)))
	})
}

// propertyKey computes the key of an object literal member or pattern entry.
func (m *Machine) propertyKey(key ast.Node, computed bool, s *Scope, k func(string, *Completion)) {
	if !computed {
		switch x := key.(type) {
		case *ast.Identifier:
			k(x.Name, nil)
			return
		case *ast.Literal:
			if f, ok := x.Value.(float64); ok {
				k(numberToString(f), nil)
				return
			}
			if str, ok := x.Value.(string); ok {
				k(str, nil)
				return
			}
		}
	}
	m.evaluate(key, s, func(c Completion) {
		if c.abrupt() {
			k("", &c)
			return
		}
		name, err := m.toPropertyKey(c.Value)
		if err != nil {
			ab := m.throwCompletion(err)
			k("", &ab)
			return
		}
		k(name, nil)
	})
}

func (m *Machine) evalObject(x *ast.ObjectExpression, s *Scope, k Continuation) {
	obj := m.newPlainObject()
	var step func(i int)
	step = func(i int) {
		if i == len(x.Properties) {
			k(normal(obj))
			return
		}
		switch p := x.Properties[i].(type) {
		case *ast.SpreadElement:
			m.evaluate(p.Argument, s, func(c Completion) {
				if c.abrupt() {
					k(c)
					return
				}
				if err := m.copyDataProperties(obj, c.Value, nil); err != nil {
					k(m.throwCompletion(err))
					return
				}
				step(i + 1)
			})
		case *ast.Property:
			m.propertyKey(p.Key, p.Computed, s, func(key string, ab *Completion) {
				if ab != nil {
					k(*ab)
					return
				}
				m.evaluate(p.Value, s, func(c Completion) {
					if c.abrupt() {
						k(c)
						return
					}
					v := orUndefined(c.Value)
					switch p.Kind {
					case "get", "set":
						m.defineAccessor(obj, key, p.Kind, v)
					default:
						if key == "__proto__" && !p.Computed && !p.Shorthand && !p.Method {
							if proto, ok := v.(*Object); ok {
								obj.proto = proto
							} else if v == Null {
								obj.proto = nil
							}
							break
						}
						m.setFunctionName(v, key, p.Value)
						obj.defineOwn(key, dataProperty(v))
					}
					step(i + 1)
				})
			})
		default:
			k(Completion{Kind: Fault, Err: fmt.Errorf("%w: %s", ErrNotImplemented, p.Type())})
		}
	}
	step(0)
}

func (m *Machine) defineAccessor(obj *Object, key, kind string, fn Value) {
	f, _ := fn.(*Object)
	p, ok := obj.props[key]
	if !ok || !p.accessor {
		p = &property{accessor: true, enumerable: true, configurable: true}
	}
	if kind == "get" {
		p.getter = f
	} else {
		p.setter = f
	}
	obj.defineOwn(key, p)
}

func (m *Machine) evalMember(x *ast.MemberExpression, s *Scope, k Continuation) {
	m.evaluate(x.Object, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		base := orUndefined(c.Value)
		m.propertyKey(x.Property, x.Computed, s, func(key string, ab *Completion) {
			if ab != nil {
				k(*ab)
				return
			}
			v, err := m.getMember(base, key)
			if err != nil {
				k(m.throwCompletion(err))
				return
			}
			k(Completion{Kind: Normal, Value: v, Ref: &Reference{Base: base, Name: key}})
		})
	})
}

// getMember reads base[key] for member expressions. The caller property of functions
// always reads as undefined.
func (m *Machine) getMember(base Value, key string) (Value, error) {
	if isNullish(base) {
		return nil, m.throwf(ErrType, "Cannot read properties of %s (reading '%s')", nullishName(base), key)
	}
	if o, ok := base.(*Object); ok && key == "caller" && o.Callable() {
		return Undefined, nil
	}
	return m.getV(base, key)
}

func nullishName(v Value) string {
	if v == Null {
		return "null"
	}
	return "undefined"
}

func (m *Machine) evalUnary(x *ast.UnaryExpression, s *Scope, k Continuation) {
	switch x.Operator {
	case "typeof":
		m.evaluate(x.Argument, s, func(c Completion) {
			if c.Kind == Throw && errors.Is(c.Err, ErrUnresolvedReference) {
				if _, ok := x.Argument.(*ast.Identifier); ok {
					k(normal(String("undefined")))
					return
				}
			}
			if c.abrupt() {
				k(c)
				return
			}
			k(normal(String(TypeOf(c.Value))))
		})
	case "delete":
		m.evalDelete(x.Argument, s, k)
	default:
		m.evaluate(x.Argument, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			v, err := m.unary(x.Operator, orUndefined(c.Value))
			if err != nil {
				k(m.throwCompletion(err))
				return
			}
			k(normal(v))
		})
	}
}

func (m *Machine) evalDelete(arg ast.Node, s *Scope, k Continuation) {
	switch t := arg.(type) {
	case *ast.Identifier:
		sc := m.resolve(s, t.Name)
		switch {
		case sc == nil:
			k(normal(Bool(true)))
		case sc.object != nil:
			k(normal(Bool(sc.object.deleteOwn(t.Name))))
		default:
			k(normal(Bool(false)))
		}
	case *ast.MemberExpression:
		m.evaluate(t.Object, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			base := orUndefined(c.Value)
			m.propertyKey(t.Property, t.Computed, s, func(key string, ab *Completion) {
				if ab != nil {
					k(*ab)
					return
				}
				obj, err := m.toObject(base)
				if err != nil {
					k(m.throwCompletion(err))
					return
				}
				k(normal(Bool(obj.deleteOwn(key))))
			})
		})
	default:
		m.evaluate(arg, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			k(normal(Bool(true)))
		})
	}
}

func (m *Machine) evalBinary(x *ast.BinaryExpression, s *Scope, k Continuation) {
	m.evaluate(x.Left, s, func(lc Completion) {
		if lc.abrupt() {
			k(lc)
			return
		}
		m.evaluate(x.Right, s, func(rc Completion) {
			if rc.abrupt() {
				k(rc)
				return
			}
			v, err := m.binary(x.Operator, orUndefined(lc.Value), orUndefined(rc.Value))
			if err != nil {
				k(m.throwCompletion(err))
				return
			}
			k(normal(v))
		})
	})
}

// shortCircuits reports whether a logical operator is decided by its left operand.
func shortCircuits(op string, left Value) bool {
	switch op {
	case "&&":
		return !ToBoolean(left)
	case "||":
		return ToBoolean(left)
	default:
		return !isNullish(left)
	}
}

func (m *Machine) evalLogical(x *ast.LogicalExpression, s *Scope, k Continuation) {
	m.evaluate(x.Left, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		left := orUndefined(c.Value)
		if shortCircuits(x.Operator, left) {
			k(normal(left))
			return
		}
		m.evaluate(x.Right, s, func(c Completion) {
			c.Ref = nil
			k(c)
		})
	})
}

// lref is an evaluated assignment target.
type lref struct {
	ident bool
	name  string
	// scope is the scope holding an identifier, nil when unresolved.
	scope *Scope
	base  Value
}

func (m *Machine) evalRef(n ast.Node, s *Scope, k func(*lref, *Completion)) {
	switch t := n.(type) {
	case *ast.Identifier:
		k(&lref{ident: true, name: t.Name, scope: m.resolve(s, t.Name)}, nil)
	case *ast.MemberExpression:
		m.evaluate(t.Object, s, func(c Completion) {
			if c.abrupt() {
				k(nil, &c)
				return
			}
			base := orUndefined(c.Value)
			m.propertyKey(t.Property, t.Computed, s, func(key string, ab *Completion) {
				if ab != nil {
					k(nil, ab)
					return
				}
				k(&lref{name: key, base: base}, nil)
			})
		})
	default:
		ab := m.throwCompletion(m.throwf(ErrSyntax, "Invalid assignment target %s", n.Type()))
		k(nil, &ab)
	}
}

func (m *Machine) getRef(r *lref) (Value, error) {
	if r.ident {
		if r.scope == nil {
			return nil, m.throwf(ErrUnresolvedReference, "%s is not defined", r.name)
		}
		return m.readBinding(r.scope, r.name)
	}
	return m.getMember(r.base, r.name)
}

func (m *Machine) putRef(r *lref, v Value, s *Scope) error {
	if r.ident {
		if r.scope == nil {
			return m.assign(s, r.name, v, true)
		}
		return m.writeBinding(r.scope, r.name, v)
	}
	return m.putV(r.base, r.name, v)
}

func (m *Machine) evalUpdate(x *ast.UpdateExpression, s *Scope, k Continuation) {
	m.evalRef(x.Argument, s, func(r *lref, ab *Completion) {
		if ab != nil {
			k(*ab)
			return
		}
		old, err := m.getRef(r)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		n, err := m.toNumber(old)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		next := n + 1
		if x.Operator == "--" {
			next = n - 1
		}
		if err := m.putRef(r, next, s); err != nil {
			k(m.throwCompletion(err))
			return
		}
		if x.Prefix {
			k(normal(next))
			return
		}
		k(normal(n))
	})
}

func (m *Machine) evalAssignment(x *ast.AssignmentExpression, s *Scope, k Continuation) {
	op := x.Operator
	if op == "=" {
		switch x.Left.(type) {
		case *ast.ArrayPattern, *ast.ObjectPattern:
			m.evaluate(x.Right, s, func(c Completion) {
				if c.abrupt() {
					k(c)
					return
				}
				v := orUndefined(c.Value)
				m.bindTarget(x.Left, v, s, bindAssign, func(bc Completion) {
					if bc.abrupt() {
						k(bc)
						return
					}
					k(normal(v))
				})
			})
			return
		}
	}

	m.evalRef(x.Left, s, func(r *lref, ab *Completion) {
		if ab != nil {
			k(*ab)
			return
		}
		store := func(v Value) {
			if err := m.putRef(r, v, s); err != nil {
				k(m.throwCompletion(err))
				return
			}
			k(normal(v))
		}
		if op == "=" {
			m.evaluate(x.Right, s, func(c Completion) {
				if c.abrupt() {
					k(c)
					return
				}
				v := orUndefined(c.Value)
				m.nameAnonymous(v, x.Left, x.Right)
				store(v)
			})
			return
		}

		old, err := m.getRef(r)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		switch op {
		case "&&=", "||=", "??=":
			if shortCircuits(op[:len(op)-1], old) {
				k(normal(old))
				return
			}
			m.evaluate(x.Right, s, func(c Completion) {
				if c.abrupt() {
					k(c)
					return
				}
				v := orUndefined(c.Value)
				m.nameAnonymous(v, x.Left, x.Right)
				store(v)
			})
			return
		}
		m.evaluate(x.Right, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			v, err := m.binary(op[:len(op)-1], old, orUndefined(c.Value))
			if err != nil {
				k(m.throwCompletion(err))
				return
			}
			store(v)
		})
	})
}

// calleeName renders a callee for error messages.
func calleeName(n ast.Node) string {
	switch x := n.(type) {
	case *ast.Identifier:
		return x.Name
	case *ast.ThisExpression:
		return "this"
	case *ast.MemberExpression:
		if id, ok := x.Property.(*ast.Identifier); ok && !x.Computed {
			return calleeName(x.Object) + "." + id.Name
		}
		return calleeName(x.Object) + "[...]"
	case *ast.CallExpression:
		return calleeName(x.Callee) + "(...)"
	default:
		return "expression"
	}
}

func (m *Machine) evalCall(x *ast.CallExpression, s *Scope, k Continuation) {
	m.evaluate(x.Callee, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		callee := orUndefined(c.Value)
		this := Undefined
		if c.Ref != nil {
			switch {
			case c.Ref.Base != nil:
				this = c.Ref.Base
			case c.Ref.Scope != nil && c.Ref.Scope.kind == WithScope:
				this = c.Ref.Scope.object
			}
		}
		m.evalList(x.Arguments, s, func(args []Value, ab *Completion) {
			if ab != nil {
				k(*ab)
				return
			}
			fn, ok := callee.(*Object)
			if !ok || !fn.Callable() {
				k(m.throwCompletion(m.throwf(ErrType, "%s is not a function", calleeName(x.Callee))))
				return
			}
			site := callSite{node: x, scope: s}
			if id, ok := x.Callee.(*ast.Identifier); ok && id.Name == "eval" && fn == m.intr.eval {
				site.direct = true
			}
			m.delayApply(site, this, fn, args, k)
		})
	})
}

func (m *Machine) evalNew(x *ast.NewExpression, s *Scope, k Continuation) {
	m.evaluate(x.Callee, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		m.evalList(x.Arguments, s, func(args []Value, ab *Completion) {
			if ab != nil {
				k(*ab)
				return
			}
			ctor, ok := c.Value.(*Object)
			if !ok || !ctor.isConstructor() {
				k(m.throwCompletion(m.throwf(ErrType, "%s is not a constructor", calleeName(x.Callee))))
				return
			}
			m.construct(callSite{node: x, scope: s}, ctor, args, k)
		})
	})
}

// nameAnonymous gives an anonymous function the name of the identifier it is assigned to.
func (m *Machine) nameAnonymous(v Value, target, init ast.Node) {
	if id, ok := target.(*ast.Identifier); ok {
		m.setFunctionName(v, id.Name, init)
	}
}

func (m *Machine) setFunctionName(v Value, name string, init ast.Node) {
	switch fn := init.(type) {
	case *ast.FunctionExpression:
		if fn.ID != nil {
			return
		}
	case *ast.ArrowFunctionExpression:
	default:
		return
	}
	if o, ok := v.(*Object); ok && o.closure != nil {
		o.defineOwn("name", &property{value: String(name), configurable: true})
	}
}
