package ast

// Program is the root of a parsed script.
type Program struct {
	Span
	Body []Node
	// Text is the source the program was parsed from.
	Text string

	hoisted *Hoisting
}

func (*Program) Type() string { return "Program" }

// Hoisted returns the declarations of the program body, computed once.
func (p *Program) Hoisted() *Hoisting {
	if p.hoisted == nil {
		p.hoisted = Hoist(p.Body)
	}
	return p.hoisted
}

type BlockStatement struct {
	Span
	Body []Node

	hoisted *Hoisting
}

func (*BlockStatement) Type() string { return "BlockStatement" }

// Hoisted returns the declarations of the block, computed once.
func (b *BlockStatement) Hoisted() *Hoisting {
	if b.hoisted == nil {
		b.hoisted = Hoist(b.Body)
	}
	return b.hoisted
}

type EmptyStatement struct{ Span }

func (*EmptyStatement) Type() string { return "EmptyStatement" }

type DebuggerStatement struct{ Span }

func (*DebuggerStatement) Type() string { return "DebuggerStatement" }

type ExpressionStatement struct {
	Span
	Expression Node
}

func (*ExpressionStatement) Type() string { return "ExpressionStatement" }

// VariableDeclaration covers var, let and const.
type VariableDeclaration struct {
	Span
	Kind         string
	Declarations []*VariableDeclarator
}

func (*VariableDeclaration) Type() string { return "VariableDeclaration" }

type VariableDeclarator struct {
	Span
	// ID is an *Identifier or a pattern.
	ID   Node
	Init Node
}

func (*VariableDeclarator) Type() string { return "VariableDeclarator" }

type FunctionDeclaration struct {
	Span
	Function
}

func (*FunctionDeclaration) Type() string { return "FunctionDeclaration" }

type IfStatement struct {
	Span
	Test       Node
	Consequent Node
	Alternate  Node
}

func (*IfStatement) Type() string { return "IfStatement" }

type ForStatement struct {
	Span
	Init   Node
	Test   Node
	Update Node
	Body   Node
}

func (*ForStatement) Type() string { return "ForStatement" }

// ForInStatement iterates the enumerable keys of Right.
type ForInStatement struct {
	Span
	// Left is a *VariableDeclaration with one declarator or an assignment target.
	Left  Node
	Right Node
	Body  Node
}

func (*ForInStatement) Type() string { return "ForInStatement" }

// ForOfStatement iterates the values of Right.
type ForOfStatement struct {
	Span
	Left  Node
	Right Node
	Body  Node
}

func (*ForOfStatement) Type() string { return "ForOfStatement" }

type WhileStatement struct {
	Span
	Test Node
	Body Node
}

func (*WhileStatement) Type() string { return "WhileStatement" }

type DoWhileStatement struct {
	Span
	Body Node
	Test Node
}

func (*DoWhileStatement) Type() string { return "DoWhileStatement" }

type BreakStatement struct {
	Span
	Label *Identifier
}

func (*BreakStatement) Type() string { return "BreakStatement" }

type ContinueStatement struct {
	Span
	Label *Identifier
}

func (*ContinueStatement) Type() string { return "ContinueStatement" }

type ReturnStatement struct {
	Span
	Argument Node
}

func (*ReturnStatement) Type() string { return "ReturnStatement" }

type ThrowStatement struct {
	Span
	Argument Node
}

func (*ThrowStatement) Type() string { return "ThrowStatement" }

type TryStatement struct {
	Span
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

func (*TryStatement) Type() string { return "TryStatement" }

type CatchClause struct {
	Span
	// Param is nil for `catch {}`.
	Param Node
	Body  *BlockStatement
}

func (*CatchClause) Type() string { return "CatchClause" }

type SwitchStatement struct {
	Span
	Discriminant Node
	Cases        []*SwitchCase

	hoisted *Hoisting
}

func (*SwitchStatement) Type() string { return "SwitchStatement" }

// Hoisted returns the declarations of all case bodies, which share one scope.
func (s *SwitchStatement) Hoisted() *Hoisting {
	if s.hoisted == nil {
		var all []Node
		for _, c := range s.Cases {
			all = append(all, c.Consequent...)
		}
		s.hoisted = Hoist(all)
	}
	return s.hoisted
}

type SwitchCase struct {
	Span
	// Test is nil for the default clause.
	Test       Node
	Consequent []Node
}

func (*SwitchCase) Type() string { return "SwitchCase" }

type LabeledStatement struct {
	Span
	Label *Identifier
	Body  Node
}

func (*LabeledStatement) Type() string { return "LabeledStatement" }

type WithStatement struct {
	Span
	Object Node
	Body   Node
}

func (*WithStatement) Type() string { return "WithStatement" }

// Unsupported stands in for syntax the parser accepts but the evaluator does not implement,
// such as classes or async functions. Evaluating it is a fatal fault.
type Unsupported struct {
	Span
	Kind string
}

func (u *Unsupported) Type() string { return u.Kind }
