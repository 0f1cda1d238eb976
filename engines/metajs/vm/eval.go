package vm

import (
	"fmt"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

// evaluate schedules the evaluation of n in scope s; k receives its completion.
func (m *Machine) evaluate(n ast.Node, s *Scope, k Continuation) {
	m.evaluateLabeled(n, s, nil, k)
}

// evaluateLabeled is evaluate for statements that carry a label set, which loops use to
// consume their own labeled break and continue signals.
func (m *Machine) evaluateLabeled(n ast.Node, s *Scope, labels []string, k Continuation) {
	if n == nil {
		k(normal(Undefined))
		return
	}
	exit := k
	if m.interceptor != nil {
		exit = func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			g := m.newGate(func() { k(c) }, func(v Value) { k(normal(v)) })
			m.intercept(Event{Phase: PhaseExit, Node: n, Value: c.Value, Scope: s, g: g})
			m.push(g.fire)
		}
	}
	g := m.newGate(func() { m.dispatch(n, s, labels, exit) }, func(v Value) { exit(normal(v)) })
	m.intercept(Event{Phase: PhaseEnter, Node: n, Scope: s, g: g})
	m.push(g.fire)
}

func (m *Machine) dispatch(n ast.Node, s *Scope, labels []string, k Continuation) {
	switch x := n.(type) {
	case *ast.Program:
		m.evalProgram(x, s, k)
	case *ast.BlockStatement:
		m.evalBlock(x, s, k)
	case *ast.EmptyStatement:
		k(normal(nil))
	case *ast.DebuggerStatement:
		m.logger.Debug("debugger statement", "offset", x.Loc.Start)
		k(normal(nil))
	case *ast.ExpressionStatement:
		m.evaluate(x.Expression, s, func(c Completion) {
			c.Ref = nil
			k(c)
		})
	case *ast.VariableDeclaration:
		m.evalVariableDeclaration(x, s, k)
	case *ast.FunctionDeclaration:
		k(normal(nil))
	case *ast.IfStatement:
		m.evalIf(x, s, k)
	case *ast.ForStatement:
		m.evalFor(x, s, labels, k)
	case *ast.WhileStatement:
		m.runLoop(loop{test: x.Test, body: x.Body, labels: labels}, s, k)
	case *ast.DoWhileStatement:
		m.runLoop(loop{test: x.Test, body: x.Body, labels: labels, bodyFirst: true}, s, k)
	case *ast.ForInStatement:
		m.evalForEach(x.Left, x.Right, x.Body, false, s, labels, k)
	case *ast.ForOfStatement:
		m.evalForEach(x.Left, x.Right, x.Body, true, s, labels, k)
	case *ast.BreakStatement:
		k(Completion{Kind: Break, Label: labelName(x.Label)})
	case *ast.ContinueStatement:
		k(Completion{Kind: Continue, Label: labelName(x.Label)})
	case *ast.ReturnStatement:
		m.evaluate(x.Argument, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			k(Completion{Kind: Return, Value: orUndefined(c.Value)})
		})
	case *ast.ThrowStatement:
		m.evaluate(x.Argument, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			k(Completion{Kind: Throw, Value: orUndefined(c.Value)})
		})
	case *ast.TryStatement:
		m.evalTry(x, s, k)
	case *ast.SwitchStatement:
		m.evalSwitch(x, s, k)
	case *ast.LabeledStatement:
		m.evalLabeled(x, s, labels, k)
	case *ast.WithStatement:
		m.evalWith(x, s, k)

	case *ast.Identifier:
		m.evalIdentifier(x, s, k)
	case *ast.Literal:
		m.evalLiteral(x, k)
	case *ast.TemplateLiteral:
		m.evalTemplate(x, s, k)
	case *ast.ThisExpression:
		k(normal(m.thisOf(s)))
	case *ast.ArrayExpression:
		m.evalArray(x, s, k)
	case *ast.ObjectExpression:
		m.evalObject(x, s, k)
	case *ast.FunctionExpression:
		k(normal(m.newClosure(&x.Function, s)))
	case *ast.ArrowFunctionExpression:
		k(normal(m.newClosure(&x.Function, s)))
	case *ast.UnaryExpression:
		m.evalUnary(x, s, k)
	case *ast.UpdateExpression:
		m.evalUpdate(x, s, k)
	case *ast.BinaryExpression:
		m.evalBinary(x, s, k)
	case *ast.LogicalExpression:
		m.evalLogical(x, s, k)
	case *ast.AssignmentExpression:
		m.evalAssignment(x, s, k)
	case *ast.ConditionalExpression:
		m.evaluate(x.Test, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			branch := x.Alternate
			if ToBoolean(c.Value) {
				branch = x.Consequent
			}
			// the result is a value, not a reference: (c ? o.f : g)() has no receiver
			m.evaluate(branch, s, func(c Completion) {
				c.Ref = nil
				k(c)
			})
		})
	case *ast.SequenceExpression:
		m.evalSequence(x.Expressions, s, k)
	case *ast.MemberExpression:
		m.evalMember(x, s, k)
	case *ast.CallExpression:
		m.evalCall(x, s, k)
	case *ast.NewExpression:
		m.evalNew(x, s, k)
	case *ast.YieldExpression:
		m.evaluate(x.Argument, s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			k(Completion{Kind: Yield, Value: orUndefined(c.Value)})
		})
	default:
		k(Completion{Kind: Fault, Err: fmt.Errorf("%w: %s", ErrNotImplemented, n.Type())})
	}
}

func labelName(id *ast.Identifier) string {
	if id == nil {
		return ""
	}
	return id.Name
}

// evalStatements runs list in order. An abrupt completion without a value carries the
// value of the last statement that produced one.
func (m *Machine) evalStatements(list []ast.Node, s *Scope, k Continuation) {
	var last Value
	var step func(i int)
	step = func(i int) {
		if i == len(list) {
			k(normal(last))
			return
		}
		m.evaluate(list[i], s, func(c Completion) {
			if c.Value != nil {
				last = c.Value
			}
			if c.abrupt() {
				if c.Value == nil {
					c.Value = last
				}
				k(c)
				return
			}
			step(i + 1)
		})
	}
	step(0)
}

// evalList evaluates expressions left to right, expanding spread elements.
func (m *Machine) evalList(list []ast.Node, s *Scope, k func([]Value, *Completion)) {
	out := make([]Value, 0, len(list))
	var step func(i int)
	step = func(i int) {
		if i == len(list) {
			k(out, nil)
			return
		}
		n := list[i]
		if n == nil {
			out = append(out, nil)
			step(i + 1)
			return
		}
		if spread, ok := n.(*ast.SpreadElement); ok {
			m.evaluate(spread.Argument, s, func(c Completion) {
				if c.abrupt() {
					k(nil, &c)
					return
				}
				items, err := m.iterate(c.Value)
				if err != nil {
					ab := m.throwCompletion(err)
					k(nil, &ab)
					return
				}
				out = append(out, items...)
				step(i + 1)
			})
			return
		}
		m.evaluate(n, s, func(c Completion) {
			if c.abrupt() {
				k(nil, &c)
				return
			}
			out = append(out, orUndefined(c.Value))
			step(i + 1)
		})
	}
	step(0)
}

func (m *Machine) evalSequence(list []ast.Node, s *Scope, k Continuation) {
	var step func(i int, last Value)
	step = func(i int, last Value) {
		if i == len(list) {
			k(normal(orUndefined(last)))
			return
		}
		m.evaluate(list[i], s, func(c Completion) {
			if c.abrupt() {
				k(c)
				return
			}
			step(i+1, c.Value)
		})
	}
	step(0, nil)
}
