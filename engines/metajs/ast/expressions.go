package ast

// Function holds the parts shared by declarations, expressions and arrows.
type Function struct {
	ID *Identifier
	// Params holds identifiers, patterns, *AssignmentPattern and a trailing *RestElement.
	Params []Node
	// Body is a *BlockStatement, or any expression when Expression is set.
	Body       Node
	Arrow      bool
	Expression bool
	Generator  bool
	Async      bool
	// Source caches the program text covered by the function node.
	Source string
}

// SimpleParams reports whether every parameter is a plain identifier.
func (f *Function) SimpleParams() bool {
	for _, p := range f.Params {
		if _, ok := p.(*Identifier); !ok {
			return false
		}
	}
	return true
}

type FunctionExpression struct {
	Span
	Function
}

func (*FunctionExpression) Type() string { return "FunctionExpression" }

type ArrowFunctionExpression struct {
	Span
	Function
}

func (*ArrowFunctionExpression) Type() string { return "ArrowFunctionExpression" }

type Identifier struct {
	Span
	Name string
}

func (*Identifier) Type() string { return "Identifier" }

// Literal is a null, boolean, number, string or regular expression literal.
// Value holds nil, bool, float64 or string; Regex is set for regular expressions.
type Literal struct {
	Span
	Value any
	Raw   string
	Regex *RegExpLiteral
}

func (*Literal) Type() string { return "Literal" }

type RegExpLiteral struct {
	Pattern string
	Flags   string
}

// TemplateLiteral has one more quasi than expressions.
type TemplateLiteral struct {
	Span
	Quasis      []string
	Expressions []Node
}

func (*TemplateLiteral) Type() string { return "TemplateLiteral" }

type ThisExpression struct{ Span }

func (*ThisExpression) Type() string { return "ThisExpression" }

type ArrayExpression struct {
	Span
	// Elements holds nil for holes and *SpreadElement for spreads.
	Elements []Node
}

func (*ArrayExpression) Type() string { return "ArrayExpression" }

type ObjectExpression struct {
	Span
	// Properties holds *Property and *SpreadElement values.
	Properties []Node
}

func (*ObjectExpression) Type() string { return "ObjectExpression" }

// Property is an object literal member or an object pattern entry.
type Property struct {
	Span
	Key      Node
	Value    Node
	Kind     string // "init", "get" or "set"
	Computed bool
	Method   bool
	// Shorthand is set for `{a}` and `{a = 1}`.
	Shorthand bool
}

func (*Property) Type() string { return "Property" }

type SpreadElement struct {
	Span
	Argument Node
}

func (*SpreadElement) Type() string { return "SpreadElement" }

type UnaryExpression struct {
	Span
	Operator string
	Argument Node
}

func (*UnaryExpression) Type() string { return "UnaryExpression" }

type UpdateExpression struct {
	Span
	Operator string
	Prefix   bool
	Argument Node
}

func (*UpdateExpression) Type() string { return "UpdateExpression" }

type BinaryExpression struct {
	Span
	Operator string
	Left     Node
	Right    Node
}

func (*BinaryExpression) Type() string { return "BinaryExpression" }

// LogicalExpression covers &&, || and ??.
type LogicalExpression struct {
	Span
	Operator string
	Left     Node
	Right    Node
}

func (*LogicalExpression) Type() string { return "LogicalExpression" }

type AssignmentExpression struct {
	Span
	Operator string
	Left     Node
	Right    Node
}

func (*AssignmentExpression) Type() string { return "AssignmentExpression" }

type ConditionalExpression struct {
	Span
	Test       Node
	Consequent Node
	Alternate  Node
}

func (*ConditionalExpression) Type() string { return "ConditionalExpression" }

type CallExpression struct {
	Span
	Callee    Node
	Arguments []Node
}

func (*CallExpression) Type() string { return "CallExpression" }

type NewExpression struct {
	Span
	Callee    Node
	Arguments []Node
}

func (*NewExpression) Type() string { return "NewExpression" }

type MemberExpression struct {
	Span
	Object Node
	// Property is an *Identifier when Computed is false.
	Property Node
	Computed bool
}

func (*MemberExpression) Type() string { return "MemberExpression" }

type SequenceExpression struct {
	Span
	Expressions []Node
}

func (*SequenceExpression) Type() string { return "SequenceExpression" }

type YieldExpression struct {
	Span
	Argument Node
	Delegate bool
}

func (*YieldExpression) Type() string { return "YieldExpression" }

type ArrayPattern struct {
	Span
	// Elements holds nil for elisions; the last element may be a *RestElement.
	Elements []Node
}

func (*ArrayPattern) Type() string { return "ArrayPattern" }

type ObjectPattern struct {
	Span
	// Properties holds *Property values and an optional trailing *RestElement.
	Properties []Node
}

func (*ObjectPattern) Type() string { return "ObjectPattern" }

// AssignmentPattern is a binding target with a default value.
type AssignmentPattern struct {
	Span
	Left  Node
	Right Node
}

func (*AssignmentPattern) Type() string { return "AssignmentPattern" }

type RestElement struct {
	Span
	Argument Node
}

func (*RestElement) Type() string { return "RestElement" }
