// Package parser turns source text into the metajs syntax tree.
//
// Parsing is delegated to the goja ECMAScript parser; this package converts goja's tree into
// the closed node set of the ast package. Constructs the evaluator does not implement (classes,
// async functions, optional chaining and so on) are converted to ast.Unsupported nodes so that
// they fail at evaluation time rather than at parse time.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	gast "github.com/dop251/goja/ast"
	gparser "github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"

	"github.com/robbyt/go-metajs/engines/metajs/ast"
)

// ErrSyntax wraps every error reported by the underlying parser.
var ErrSyntax = errors.New("syntax error")

// Parse parses a complete script.
func Parse(text string) (*ast.Program, error) {
	prog, err := gparser.ParseFile(nil, "", text, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	c := &converter{}
	out := &ast.Program{
		Span: ast.Span{Loc: ast.Range{Start: 0, End: len(text)}},
		Text: text,
	}
	for _, s := range prog.Body {
		out.Body = append(out.Body, c.stmt(s))
	}
	ast.AttachSource(out, text)
	ast.Prepare(out)
	return out, nil
}

type converter struct{}

// goja positions are 1-based file indexes.
func span(n gast.Node) ast.Span {
	return ast.Span{Loc: ast.Range{Start: int(n.Idx0()) - 1, End: int(n.Idx1()) - 1}}
}

func spanOf(from, to gast.Node) ast.Span {
	return ast.Span{Loc: ast.Range{Start: int(from.Idx0()) - 1, End: int(to.Idx1()) - 1}}
}

func unsupported(n gast.Node) *ast.Unsupported {
	kind := strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
	return &ast.Unsupported{Span: span(n), Kind: kind}
}

func (c *converter) ident(id *gast.Identifier) *ast.Identifier {
	if id == nil {
		return nil
	}
	return &ast.Identifier{Span: span(id), Name: id.Name.String()}
}

func (c *converter) block(b *gast.BlockStatement) *ast.BlockStatement {
	if b == nil {
		return nil
	}
	out := &ast.BlockStatement{Span: span(b)}
	for _, s := range b.List {
		out.Body = append(out.Body, c.stmt(s))
	}
	return out
}

func (c *converter) stmts(list []gast.Statement) []ast.Node {
	out := make([]ast.Node, 0, len(list))
	for _, s := range list {
		out = append(out, c.stmt(s))
	}
	return out
}

func (c *converter) stmt(s gast.Statement) ast.Node {
	if s == nil {
		return nil
	}
	switch x := s.(type) {
	case *gast.BlockStatement:
		return c.block(x)
	case *gast.EmptyStatement:
		return &ast.EmptyStatement{Span: span(x)}
	case *gast.DebuggerStatement:
		return &ast.DebuggerStatement{Span: span(x)}
	case *gast.ExpressionStatement:
		return &ast.ExpressionStatement{Span: span(x), Expression: c.expr(x.Expression)}
	case *gast.VariableStatement:
		return &ast.VariableDeclaration{Span: span(x), Kind: "var", Declarations: c.declarators(x.List)}
	case *gast.LexicalDeclaration:
		return c.lexical(x)
	case *gast.FunctionDeclaration:
		if x.Function.Async {
			return unsupported(x)
		}
		return &ast.FunctionDeclaration{Span: span(x), Function: c.function(x.Function)}
	case *gast.IfStatement:
		return &ast.IfStatement{
			Span:       span(x),
			Test:       c.expr(x.Test),
			Consequent: c.stmt(x.Consequent),
			Alternate:  c.stmt(x.Alternate),
		}
	case *gast.ForStatement:
		return &ast.ForStatement{
			Span:   span(x),
			Init:   c.forInit(x.Initializer),
			Test:   c.expr(x.Test),
			Update: c.expr(x.Update),
			Body:   c.stmt(x.Body),
		}
	case *gast.ForInStatement:
		return &ast.ForInStatement{
			Span:  span(x),
			Left:  c.forInto(x.Into),
			Right: c.expr(x.Source),
			Body:  c.stmt(x.Body),
		}
	case *gast.ForOfStatement:
		return &ast.ForOfStatement{
			Span:  span(x),
			Left:  c.forInto(x.Into),
			Right: c.expr(x.Source),
			Body:  c.stmt(x.Body),
		}
	case *gast.WhileStatement:
		return &ast.WhileStatement{Span: span(x), Test: c.expr(x.Test), Body: c.stmt(x.Body)}
	case *gast.DoWhileStatement:
		return &ast.DoWhileStatement{Span: span(x), Body: c.stmt(x.Body), Test: c.expr(x.Test)}
	case *gast.BranchStatement:
		if x.Token == token.CONTINUE {
			return &ast.ContinueStatement{Span: span(x), Label: c.ident(x.Label)}
		}
		return &ast.BreakStatement{Span: span(x), Label: c.ident(x.Label)}
	case *gast.ReturnStatement:
		return &ast.ReturnStatement{Span: span(x), Argument: c.expr(x.Argument)}
	case *gast.ThrowStatement:
		return &ast.ThrowStatement{Span: span(x), Argument: c.expr(x.Argument)}
	case *gast.TryStatement:
		out := &ast.TryStatement{
			Span:      span(x),
			Block:     c.block(x.Body),
			Finalizer: c.block(x.Finally),
		}
		if x.Catch != nil {
			out.Handler = &ast.CatchClause{Span: span(x.Catch), Body: c.block(x.Catch.Body)}
			if x.Catch.Parameter != nil {
				out.Handler.Param = c.target(x.Catch.Parameter)
			}
		}
		return out
	case *gast.SwitchStatement:
		out := &ast.SwitchStatement{Span: span(x), Discriminant: c.expr(x.Discriminant)}
		for _, cs := range x.Body {
			out.Cases = append(out.Cases, &ast.SwitchCase{
				Span:       span(cs),
				Test:       c.expr(cs.Test),
				Consequent: c.stmts(cs.Consequent),
			})
		}
		return out
	case *gast.LabelledStatement:
		return &ast.LabeledStatement{Span: span(x), Label: c.ident(x.Label), Body: c.stmt(x.Statement)}
	case *gast.WithStatement:
		return &ast.WithStatement{Span: span(x), Object: c.expr(x.Object), Body: c.stmt(x.Body)}
	default:
		return unsupported(s)
	}
}

func (c *converter) lexical(x *gast.LexicalDeclaration) *ast.VariableDeclaration {
	kind := "let"
	if x.Token == token.CONST {
		kind = "const"
	}
	return &ast.VariableDeclaration{Span: span(x), Kind: kind, Declarations: c.declarators(x.List)}
}

func (c *converter) declarators(list []*gast.Binding) []*ast.VariableDeclarator {
	out := make([]*ast.VariableDeclarator, 0, len(list))
	for _, b := range list {
		d := &ast.VariableDeclarator{ID: c.target(b.Target), Init: c.expr(b.Initializer)}
		if b.Initializer != nil {
			d.Span = spanOf(b.Target, b.Initializer)
		} else {
			d.Span = span(b.Target)
		}
		out = append(out, d)
	}
	return out
}

func (c *converter) forInit(init gast.ForLoopInitializer) ast.Node {
	switch x := init.(type) {
	case nil:
		return nil
	case *gast.ForLoopInitializerExpression:
		return c.expr(x.Expression)
	case *gast.ForLoopInitializerVarDeclList:
		decls := c.declarators(x.List)
		out := &ast.VariableDeclaration{Kind: "var", Declarations: decls}
		if len(decls) > 0 {
			out.Span = ast.Span{Loc: ast.Range{Start: decls[0].Loc.Start, End: decls[len(decls)-1].Loc.End}}
		}
		return out
	case *gast.ForLoopInitializerLexicalDecl:
		return c.lexical(&x.LexicalDeclaration)
	}
	return nil
}

func (c *converter) forInto(into gast.ForInto) ast.Node {
	switch x := into.(type) {
	case *gast.ForIntoVar:
		decls := c.declarators([]*gast.Binding{x.Binding})
		return &ast.VariableDeclaration{Span: decls[0].Span, Kind: "var", Declarations: decls}
	case *gast.ForDeclaration:
		kind := "let"
		if x.IsConst {
			kind = "const"
		}
		id := c.target(x.Target)
		return &ast.VariableDeclaration{
			Span:         span(x.Target),
			Kind:         kind,
			Declarations: []*ast.VariableDeclarator{{Span: span(x.Target), ID: id}},
		}
	case *gast.ForIntoExpression:
		return c.target(x.Expression)
	}
	return nil
}

func (c *converter) function(f *gast.FunctionLiteral) ast.Function {
	return ast.Function{
		ID:        c.ident(f.Name),
		Params:    c.params(f.ParameterList),
		Body:      c.block(f.Body),
		Generator: f.Generator,
		Async:     f.Async,
	}
}

func (c *converter) params(pl *gast.ParameterList) []ast.Node {
	if pl == nil {
		return nil
	}
	var out []ast.Node
	for _, b := range pl.List {
		t := c.target(b.Target)
		if b.Initializer != nil {
			t = &ast.AssignmentPattern{Span: spanOf(b.Target, b.Initializer), Left: t, Right: c.expr(b.Initializer)}
		}
		out = append(out, t)
	}
	if pl.Rest != nil {
		out = append(out, &ast.RestElement{Span: span(pl.Rest), Argument: c.target(pl.Rest)})
	}
	return out
}

// target converts assignment and binding targets, turning literals into patterns.
func (c *converter) target(e gast.Expression) ast.Node {
	switch x := e.(type) {
	case nil:
		return nil
	case *gast.ArrayPattern:
		out := &ast.ArrayPattern{Span: span(x)}
		for _, el := range x.Elements {
			if el == nil {
				out.Elements = append(out.Elements, nil)
				continue
			}
			out.Elements = append(out.Elements, c.target(el))
		}
		if x.Rest != nil {
			out.Elements = append(out.Elements, &ast.RestElement{Span: span(x.Rest), Argument: c.target(x.Rest)})
		}
		return out
	case *gast.ObjectPattern:
		out := &ast.ObjectPattern{Span: span(x)}
		for _, p := range x.Properties {
			switch prop := p.(type) {
			case *gast.PropertyShort:
				name := c.ident(&prop.Name)
				var value ast.Node = &ast.Identifier{Span: name.Span, Name: name.Name}
				if prop.Initializer != nil {
					value = &ast.AssignmentPattern{Span: span(prop), Left: value, Right: c.expr(prop.Initializer)}
				}
				out.Properties = append(out.Properties, &ast.Property{
					Span: span(prop), Key: name, Value: value, Kind: "init", Shorthand: true,
				})
			case *gast.PropertyKeyed:
				out.Properties = append(out.Properties, &ast.Property{
					Span:     span(prop),
					Key:      c.expr(prop.Key),
					Value:    c.target(prop.Value),
					Kind:     "init",
					Computed: prop.Computed,
				})
			}
		}
		if x.Rest != nil {
			out.Properties = append(out.Properties, &ast.RestElement{Span: span(x.Rest), Argument: c.target(x.Rest)})
		}
		return out
	case *gast.AssignExpression:
		if x.Operator == token.ASSIGN {
			return &ast.AssignmentPattern{Span: span(x), Left: c.target(x.Left), Right: c.expr(x.Right)}
		}
	}
	return c.expr(e)
}

func (c *converter) exprs(list []gast.Expression) []ast.Node {
	out := make([]ast.Node, 0, len(list))
	for _, e := range list {
		out = append(out, c.expr(e))
	}
	return out
}

func (c *converter) expr(e gast.Expression) ast.Node {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *gast.Identifier:
		return c.ident(x)
	case *gast.NullLiteral:
		return &ast.Literal{Span: span(x), Value: nil, Raw: "null"}
	case *gast.BooleanLiteral:
		return &ast.Literal{Span: span(x), Value: x.Value, Raw: x.Literal}
	case *gast.NumberLiteral:
		var f float64
		switch v := x.Value.(type) {
		case int64:
			f = float64(v)
		case float64:
			f = v
		default:
			parsed, err := strconv.ParseFloat(x.Literal, 64)
			if err != nil {
				return unsupported(x)
			}
			f = parsed
		}
		return &ast.Literal{Span: span(x), Value: f, Raw: x.Literal}
	case *gast.StringLiteral:
		return &ast.Literal{Span: span(x), Value: x.Value.String(), Raw: x.Literal}
	case *gast.RegExpLiteral:
		return &ast.Literal{
			Span:  span(x),
			Raw:   x.Literal,
			Regex: &ast.RegExpLiteral{Pattern: x.Pattern, Flags: x.Flags},
		}
	case *gast.TemplateLiteral:
		if x.Tag != nil {
			return unsupported(x)
		}
		out := &ast.TemplateLiteral{Span: span(x), Expressions: c.exprs(x.Expressions)}
		for _, q := range x.Elements {
			out.Quasis = append(out.Quasis, q.Parsed.String())
		}
		return out
	case *gast.ThisExpression:
		return &ast.ThisExpression{Span: span(x)}
	case *gast.ArrayLiteral:
		out := &ast.ArrayExpression{Span: span(x)}
		for _, el := range x.Value {
			if el == nil {
				out.Elements = append(out.Elements, nil)
				continue
			}
			out.Elements = append(out.Elements, c.expr(el))
		}
		return out
	case *gast.ObjectLiteral:
		out := &ast.ObjectExpression{Span: span(x)}
		for _, p := range x.Value {
			out.Properties = append(out.Properties, c.property(p))
		}
		return out
	case *gast.SpreadElement:
		return &ast.SpreadElement{Span: span(x), Argument: c.expr(x.Expression)}
	case *gast.UnaryExpression:
		if x.Operator == token.INCREMENT || x.Operator == token.DECREMENT {
			return &ast.UpdateExpression{
				Span:     span(x),
				Operator: x.Operator.String(),
				Prefix:   !x.Postfix,
				Argument: c.expr(x.Operand),
			}
		}
		return &ast.UnaryExpression{Span: span(x), Operator: x.Operator.String(), Argument: c.expr(x.Operand)}
	case *gast.BinaryExpression:
		switch x.Operator {
		case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
			return &ast.LogicalExpression{
				Span: span(x), Operator: x.Operator.String(), Left: c.expr(x.Left), Right: c.expr(x.Right),
			}
		}
		return &ast.BinaryExpression{
			Span: span(x), Operator: x.Operator.String(), Left: c.expr(x.Left), Right: c.expr(x.Right),
		}
	case *gast.AssignExpression:
		op := "="
		if x.Operator != token.ASSIGN {
			op = x.Operator.String() + "="
		}
		return &ast.AssignmentExpression{Span: span(x), Operator: op, Left: c.target(x.Left), Right: c.expr(x.Right)}
	case *gast.ConditionalExpression:
		return &ast.ConditionalExpression{
			Span:       span(x),
			Test:       c.expr(x.Test),
			Consequent: c.expr(x.Consequent),
			Alternate:  c.expr(x.Alternate),
		}
	case *gast.CallExpression:
		return &ast.CallExpression{Span: span(x), Callee: c.expr(x.Callee), Arguments: c.exprs(x.ArgumentList)}
	case *gast.NewExpression:
		return &ast.NewExpression{Span: span(x), Callee: c.expr(x.Callee), Arguments: c.exprs(x.ArgumentList)}
	case *gast.DotExpression:
		return &ast.MemberExpression{Span: span(x), Object: c.expr(x.Left), Property: c.ident(&x.Identifier)}
	case *gast.BracketExpression:
		return &ast.MemberExpression{Span: span(x), Object: c.expr(x.Left), Property: c.expr(x.Member), Computed: true}
	case *gast.SequenceExpression:
		return &ast.SequenceExpression{Span: span(x), Expressions: c.exprs(x.Sequence)}
	case *gast.FunctionLiteral:
		if x.Async {
			return unsupported(x)
		}
		return &ast.FunctionExpression{Span: span(x), Function: c.function(x)}
	case *gast.ArrowFunctionLiteral:
		if x.Async {
			return unsupported(x)
		}
		fn := ast.Function{Params: c.params(x.ParameterList), Arrow: true}
		switch body := x.Body.(type) {
		case *gast.BlockStatement:
			fn.Body = c.block(body)
		case *gast.ExpressionBody:
			fn.Body = c.expr(body.Expression)
			fn.Expression = true
		}
		return &ast.ArrowFunctionExpression{Span: span(x), Function: fn}
	case *gast.YieldExpression:
		return &ast.YieldExpression{Span: span(x), Argument: c.expr(x.Argument), Delegate: x.Delegate}
	case *gast.ArrayPattern, *gast.ObjectPattern:
		return c.target(x)
	default:
		return unsupported(e)
	}
}

func (c *converter) property(p gast.Property) ast.Node {
	switch x := p.(type) {
	case *gast.PropertyShort:
		name := c.ident(&x.Name)
		return &ast.Property{
			Span:      span(x),
			Key:       name,
			Value:     &ast.Identifier{Span: name.Span, Name: name.Name},
			Kind:      "init",
			Shorthand: true,
		}
	case *gast.PropertyKeyed:
		out := &ast.Property{
			Span:     span(x),
			Key:      c.expr(x.Key),
			Value:    c.expr(x.Value),
			Kind:     "init",
			Computed: x.Computed,
		}
		switch x.Kind {
		case gast.PropertyKindGet:
			out.Kind = "get"
		case gast.PropertyKindSet:
			out.Kind = "set"
		case gast.PropertyKindMethod:
			out.Method = true
		}
		return out
	case *gast.SpreadElement:
		return &ast.SpreadElement{Span: span(x), Argument: c.expr(x.Expression)}
	default:
		return unsupported(p)
	}
}
