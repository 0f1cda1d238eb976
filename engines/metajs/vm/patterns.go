package vm

import (
	"fmt"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

// bindMode selects how a binding target receives its value.
type bindMode uint8

const (
	// bindAssign assigns through the scope chain, creating a global when unresolved.
	bindAssign bindMode = iota
	// bindVar assigns a hoisted var binding.
	bindVar
	bindLet
	bindConst
	// bindParam declares a parameter in the function scope.
	bindParam
)

// bindTarget stores v into an identifier, member expression or destructuring pattern.
func (m *Machine) bindTarget(target ast.Node, v Value, s *Scope, mode bindMode, k Continuation) {
	done := func(err error) {
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		k(normal(nil))
	}

	switch t := target.(type) {
	case *ast.Identifier:
		done(m.bindName(t.Name, v, s, mode))
	case *ast.MemberExpression:
		m.evalRef(t, s, func(r *lref, ab *Completion) {
			if ab != nil {
				k(*ab)
				return
			}
			done(m.putRef(r, v, s))
		})
	case *ast.AssignmentPattern:
		if v != Undefined {
			m.bindTarget(t.Left, v, s, mode, k)
			return
		}
		m.evaluate(t.Right, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			dv := orUndefined(c.Value)
			m.nameAnonymous(dv, t.Left, t.Right)
			m.bindTarget(t.Left, dv, s, mode, k)
		})
	case *ast.ArrayPattern:
		items, err := m.iterate(v)
		if err != nil {
			done(err)
			return
		}
		m.bindArrayPattern(t, items, s, mode, k)
	case *ast.ObjectPattern:
		if isNullish(v) {
			done(m.throwf(ErrType, "Cannot destructure '%s' as it is %s", Inspect(v), nullishName(v)))
			return
		}
		m.bindObjectPattern(t, v, s, mode, k)
	default:
		k(Completion{Kind: Fault, Err: fmt.Errorf("%w: binding target %s", ErrNotImplemented, target.Type())})
	}
}

func (m *Machine) bindName(name string, v Value, s *Scope, mode bindMode) error {
	switch mode {
	case bindLet, bindParam:
		m.declareLexical(s, name, v, false)
		return nil
	case bindConst:
		m.declareLexical(s, name, v, true)
		return nil
	default:
		return m.assign(s, name, v, true)
	}
}

func (m *Machine) bindArrayPattern(t *ast.ArrayPattern, items []Value, s *Scope, mode bindMode, k Continuation) {
	var step func(i int)
	step = func(i int) {
		if i == len(t.Elements) {
			k(normal(nil))
			return
		}
		el := t.Elements[i]
		if el == nil {
			step(i + 1)
			return
		}
		next := func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			step(i + 1)
		}
		if rest, ok := el.(*ast.RestElement); ok {
			var tail []Value
			if i < len(items) {
				tail = append(tail, items[i:]...)
			}
			m.bindTarget(rest.Argument, m.newArray(tail), s, mode, next)
			return
		}
		var v Value = Undefined
		if i < len(items) {
			v = items[i]
		}
		m.bindTarget(el, v, s, mode, next)
	}
	step(0)
}

func (m *Machine) bindObjectPattern(t *ast.ObjectPattern, v Value, s *Scope, mode bindMode, k Continuation) {
	used := map[string]bool{}
	var step func(i int)
	step = func(i int) {
		if i == len(t.Properties) {
			k(normal(nil))
			return
		}
		next := func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			step(i + 1)
		}
		switch p := t.Properties[i].(type) {
		case *ast.RestElement:
			rest := m.newPlainObject()
			if err := m.copyDataProperties(rest, v, used); err != nil {
				k(m.throwCompletion(err))
				return
			}
			m.bindTarget(p.Argument, rest, s, mode, next)
		case *ast.Property:
			m.propertyKey(p.Key, p.Computed, s, func(key string, ab *Completion) {
				if ab != nil {
					k(*ab)
					return
				}
				used[key] = true
				pv, err := m.getV(v, key)
				if err != nil {
					k(m.throwCompletion(err))
					return
				}
				m.bindTarget(p.Value, pv, s, mode, next)
			})
		default:
			k(Completion{Kind: Fault, Err: fmt.Errorf("%w: pattern entry %s", ErrNotImplemented, p.Type())})
		}
	}
	step(0)
}
