package vm

import (
	"slices"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

func (m *Machine) evalProgram(x *ast.Program, s *Scope, k Continuation) {
	m.hoistVarScope(x.Hoisted(), s)
	m.evalStatements(x.Body, s, k)
}

// hoistVarScope applies the declarations of a program or function body.
func (m *Machine) hoistVarScope(h *ast.Hoisting, s *Scope) {
	for _, name := range h.Vars {
		m.declare(s, name, nil)
	}
	for _, name := range h.Lexical {
		m.declareLexical(s, name, Undefined, false)
	}
	for _, fn := range h.Nested {
		m.declareFunction(s, fn.ID.Name, m.newClosure(&fn.Function, s))
	}
	for _, fn := range h.Functions {
		m.declare(s, fn.ID.Name, m.newClosure(&fn.Function, s))
	}
}

// hoistBlock applies the declarations of a nested block to its own scope. Function
// declarations are rebound in the var scope too, now closing over the block.
func (m *Machine) hoistBlock(h *ast.Hoisting, s *Scope) {
	for _, name := range h.Lexical {
		m.declareLexical(s, name, Undefined, false)
	}
	for _, fn := range h.Functions {
		closure := m.newClosure(&fn.Function, s)
		m.declareLexical(s, fn.ID.Name, closure, false)
		m.declareFunction(s, fn.ID.Name, closure)
	}
}

func (m *Machine) evalBlock(x *ast.BlockStatement, s *Scope, k Continuation) {
	if s.kind == FunctionScope && s.fn != nil && s.fn.closure.fn.Body == ast.Node(x) {
		m.hoistVarScope(x.Hoisted(), s)
		m.evalStatements(x.Body, s, k)
		return
	}
	inner := newScope(BlockScope, s)
	m.hoistBlock(x.Hoisted(), inner)
	m.evalStatements(x.Body, inner, k)
}

func declarationMode(kind string) bindMode {
	switch kind {
	case "let":
		return bindLet
	case "const":
		return bindConst
	default:
		return bindVar
	}
}

func (m *Machine) evalVariableDeclaration(x *ast.VariableDeclaration, s *Scope, k Continuation) {
	mode := declarationMode(x.Kind)
	var step func(i int)
	step = func(i int) {
		if i == len(x.Declarations) {
			k(normal(nil))
			return
		}
		d := x.Declarations[i]
		if d.Init == nil {
			if mode != bindVar {
				for _, name := range ast.BoundNames(d.ID) {
					m.declareLexical(s, name, Undefined, mode == bindConst)
				}
			}
			step(i + 1)
			return
		}
		m.evaluate(d.Init, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			v := orUndefined(c.Value)
			m.nameAnonymous(v, d.ID, d.Init)
			m.bindTarget(d.ID, v, s, mode, func(bc Completion) {
				if bc.abrupt() {
					k(bc)
					return
				}
				step(i + 1)
			})
		})
	}
	step(0)
}

func (m *Machine) evalIf(x *ast.IfStatement, s *Scope, k Continuation) {
	m.evaluate(x.Test, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		branch := x.Consequent
		if !ToBoolean(c.Value) {
			branch = x.Alternate
		}
		if branch == nil {
			k(normal(Undefined))
			return
		}
		m.evaluate(branch, s, func(c Completion) {
			if c.Value == nil {
				c.Value = Undefined
			}
			k(c)
		})
	})
}

// loop describes the for, while and do-while statements, which share one algorithm.
type loop struct {
	test      ast.Node
	update    ast.Node
	body      ast.Node
	labels    []string
	bodyFirst bool
	// perIteration names let bindings copied into a fresh scope for every iteration.
	perIteration []string
}

func (m *Machine) evalFor(x *ast.ForStatement, s *Scope, labels []string, k Continuation) {
	lp := loop{test: x.Test, update: x.Update, body: x.Body, labels: labels}
	loopScope := s
	if d, ok := x.Init.(*ast.VariableDeclaration); ok && d.Kind != "var" {
		loopScope = newScope(BlockScope, s)
		if d.Kind == "let" {
			for _, decl := range d.Declarations {
				lp.perIteration = append(lp.perIteration, ast.BoundNames(decl.ID)...)
			}
		}
	}
	if x.Init == nil {
		m.runLoop(lp, loopScope, k)
		return
	}
	m.evaluate(x.Init, loopScope, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		m.runLoop(lp, loopScope, k)
	})
}

// loopSignal handles the completion of one loop body. It reports whether the loop
// continues; otherwise it has already delivered the loop's completion to k.
func loopSignal(c Completion, v *Value, labels []string, k Continuation) bool {
	if c.Value != nil {
		*v = c.Value
	}
	switch c.Kind {
	case Normal:
		return true
	case Continue:
		if c.Label == "" || slices.Contains(labels, c.Label) {
			return true
		}
	case Break:
		if c.Label == "" {
			k(normal(*v))
			return false
		}
	default:
		k(c)
		return false
	}
	c.Value = *v
	k(c)
	return false
}

func (m *Machine) runLoop(lp loop, s *Scope, k Continuation) {
	var v Value = Undefined
	iter := s
	fresh := func() {
		if len(lp.perIteration) == 0 {
			return
		}
		next := newScope(BlockScope, iter.prev)
		for _, name := range lp.perIteration {
			next.vars[name] = iter.vars[name]
		}
		iter = next
	}

	var test, body, advance func()
	test = func() {
		if lp.test == nil {
			body()
			return
		}
		m.evaluate(lp.test, iter, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			if !ToBoolean(c.Value) {
				k(normal(v))
				return
			}
			body()
		})
	}
	body = func() {
		m.evaluate(lp.body, iter, func(c Completion) {
			if loopSignal(c, &v, lp.labels, k) {
				advance()
			}
		})
	}
	advance = func() {
		fresh()
		if lp.update == nil {
			test()
			return
		}
		m.evaluate(lp.update, iter, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			test()
		})
	}

	fresh()
	if lp.bodyFirst {
		body()
		return
	}
	test()
}

// evalForEach runs for-in (keys) and for-of (values). The items are collected before
// the first iteration.
func (m *Machine) evalForEach(left, right, body ast.Node, values bool, s *Scope, labels []string, k Continuation) {
	m.evaluate(right, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		var items []Value
		var err error
		if values {
			items, err = m.iterate(c.Value)
		} else if !isNullish(c.Value) {
			items, err = m.forInKeys(c.Value)
		}
		if err != nil {
			k(m.throwCompletion(err))
			return
		}

		target, mode := left, bindAssign
		decl, isDecl := left.(*ast.VariableDeclaration)
		if isDecl {
			target, mode = decl.Declarations[0].ID, declarationMode(decl.Kind)
		}

		var v Value = Undefined
		var step func(i int)
		step = func(i int) {
			if i == len(items) {
				k(normal(v))
				return
			}
			iter := s
			if mode == bindLet || mode == bindConst {
				iter = newScope(BlockScope, s)
			}
			m.bindTarget(target, items[i], iter, mode, func(bc Completion) {
				if bc.abrupt() {
					k(bc)
					return
				}
				m.evaluate(body, iter, func(c Completion) {
					if loopSignal(c, &v, labels, k) {
						step(i + 1)
					}
				})
			})
		}
		step(0)
	})
}

func (m *Machine) evalTry(x *ast.TryStatement, s *Scope, k Continuation) {
	finalize := func(pending Completion) {
		if pending.Kind == Fault {
			k(pending)
			return
		}
		if pending.Value == nil {
			pending.Value = Undefined
		}
		if x.Finalizer == nil {
			k(pending)
			return
		}
		m.evaluate(x.Finalizer, s, func(f Completion) {
			if f.abrupt() {
				k(f)
				return
			}
			k(pending)
		})
	}
	m.evaluate(x.Block, s, func(c Completion) {
		if c.Kind == Throw && x.Handler != nil {
			m.evalCatch(x.Handler, s, c.Value, finalize)
			return
		}
		finalize(c)
	})
}

func (m *Machine) evalCatch(h *ast.CatchClause, s *Scope, thrown Value, k Continuation) {
	cs := newScope(CatchScope, s)
	run := func() { m.evaluate(h.Body, cs, k) }
	if h.Param == nil {
		run()
		return
	}
	m.bindTarget(h.Param, thrown, cs, bindLet, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		run()
	})
}

func (m *Machine) evalSwitch(x *ast.SwitchStatement, s *Scope, k Continuation) {
	m.evaluate(x.Discriminant, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		disc := orUndefined(c.Value)
		inner := newScope(BlockScope, s)
		m.hoistBlock(x.Hoisted(), inner)

		var body []ast.Node
		offsets := make([]int, len(x.Cases))
		defaultCase := -1
		for i, cs := range x.Cases {
			offsets[i] = len(body)
			body = append(body, cs.Consequent...)
			if cs.Test == nil {
				defaultCase = i
			}
		}
		finish := func(c Completion) {
			if c.Kind == Break && c.Label == "" {
				k(normal(orUndefined(c.Value)))
				return
			}
			if c.Value == nil {
				c.Value = Undefined
			}
			k(c)
		}
		run := func(i int) { m.evalStatements(body[offsets[i]:], inner, finish) }

		var test func(i int)
		test = func(i int) {
			if i == len(x.Cases) {
				if defaultCase >= 0 {
					run(defaultCase)
					return
				}
				k(normal(Undefined))
				return
			}
			cs := x.Cases[i]
			if cs.Test == nil {
				test(i + 1)
				return
			}
			m.evaluate(cs.Test, inner, func(c Completion) {
				if c.abrupt() {
					k(c)
					return
				}
				if StrictEquals(disc, orUndefined(c.Value)) {
					run(i)
					return
				}
				test(i + 1)
			})
		}
		test(0)
	})
}

func (m *Machine) evalLabeled(x *ast.LabeledStatement, s *Scope, labels []string, k Continuation) {
	name := x.Label.Name
	inner := append(slices.Clip(labels), name)
	m.evaluateLabeled(x.Body, s, inner, func(c Completion) {
		if c.Kind == Break && c.Label == name {
			k(normal(orUndefined(c.Value)))
			return
		}
		k(c)
	})
}

func (m *Machine) evalWith(x *ast.WithStatement, s *Scope, k Continuation) {
	m.evaluate(x.Object, s, func(c Completion) {
		if c.abrupt() {
			k(c)
			return
		}
		obj, err := m.toObject(c.Value)
		if err != nil {
			k(m.throwCompletion(err))
			return
		}
		ws := newObjectScope(WithScope, obj, s)
		m.evaluate(x.Body, ws, func(c Completion) {
			if c.Value == nil {
				c.Value = Undefined
			}
			k(c)
		})
	})
}
