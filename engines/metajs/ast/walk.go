package ast

// Inspect traverses the tree rooted at n in depth-first order. It calls f for each
// non-nil node; when f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	each := func(list ...Node) {
		for _, c := range list {
			if c != nil {
				Inspect(c, f)
			}
		}
	}
	fn := func(fun *Function) {
		if fun.ID != nil {
			Inspect(fun.ID, f)
		}
		each(fun.Params...)
		each(fun.Body)
	}

	switch x := n.(type) {
	case *Program:
		each(x.Body...)
	case *BlockStatement:
		each(x.Body...)
	case *ExpressionStatement:
		each(x.Expression)
	case *VariableDeclaration:
		for _, d := range x.Declarations {
			Inspect(d, f)
		}
	case *VariableDeclarator:
		each(x.ID, x.Init)
	case *FunctionDeclaration:
		fn(&x.Function)
	case *FunctionExpression:
		fn(&x.Function)
	case *ArrowFunctionExpression:
		fn(&x.Function)
	case *IfStatement:
		each(x.Test, x.Consequent, x.Alternate)
	case *ForStatement:
		each(x.Init, x.Test, x.Update, x.Body)
	case *ForInStatement:
		each(x.Left, x.Right, x.Body)
	case *ForOfStatement:
		each(x.Left, x.Right, x.Body)
	case *WhileStatement:
		each(x.Test, x.Body)
	case *DoWhileStatement:
		each(x.Body, x.Test)
	case *BreakStatement:
		if x.Label != nil {
			Inspect(x.Label, f)
		}
	case *ContinueStatement:
		if x.Label != nil {
			Inspect(x.Label, f)
		}
	case *ReturnStatement:
		each(x.Argument)
	case *ThrowStatement:
		each(x.Argument)
	case *TryStatement:
		Inspect(x.Block, f)
		if x.Handler != nil {
			Inspect(x.Handler, f)
		}
		if x.Finalizer != nil {
			Inspect(x.Finalizer, f)
		}
	case *CatchClause:
		each(x.Param)
		Inspect(x.Body, f)
	case *SwitchStatement:
		each(x.Discriminant)
		for _, c := range x.Cases {
			Inspect(c, f)
		}
	case *SwitchCase:
		each(x.Test)
		each(x.Consequent...)
	case *LabeledStatement:
		Inspect(x.Label, f)
		each(x.Body)
	case *WithStatement:
		each(x.Object, x.Body)
	case *TemplateLiteral:
		each(x.Expressions...)
	case *ArrayExpression:
		each(x.Elements...)
	case *ObjectExpression:
		each(x.Properties...)
	case *Property:
		each(x.Key, x.Value)
	case *SpreadElement:
		each(x.Argument)
	case *UnaryExpression:
		each(x.Argument)
	case *UpdateExpression:
		each(x.Argument)
	case *BinaryExpression:
		each(x.Left, x.Right)
	case *LogicalExpression:
		each(x.Left, x.Right)
	case *AssignmentExpression:
		each(x.Left, x.Right)
	case *ConditionalExpression:
		each(x.Test, x.Consequent, x.Alternate)
	case *CallExpression:
		each(x.Callee)
		each(x.Arguments...)
	case *NewExpression:
		each(x.Callee)
		each(x.Arguments...)
	case *MemberExpression:
		each(x.Object, x.Property)
	case *SequenceExpression:
		each(x.Expressions...)
	case *YieldExpression:
		each(x.Argument)
	case *ArrayPattern:
		each(x.Elements...)
	case *ObjectPattern:
		each(x.Properties...)
	case *AssignmentPattern:
		each(x.Left, x.Right)
	case *RestElement:
		each(x.Argument)
	}
}

// AttachSource fills the Source cache of every function in the tree from text.
// Functions that already carry a source are left alone.
func AttachSource(root Node, text string) {
	Inspect(root, func(n Node) bool {
		var fn *Function
		switch x := n.(type) {
		case *FunctionDeclaration:
			fn = &x.Function
		case *FunctionExpression:
			fn = &x.Function
		case *ArrowFunctionExpression:
			fn = &x.Function
		}
		if fn != nil && fn.Source == "" {
			fn.Source = Slice(text, n.Range())
		}
		return true
	})
}

// Prepare fills every lazily computed cache in the tree. A prepared tree is only read
// during evaluation, so it can be run by several machines at once.
func Prepare(root Node) {
	Inspect(root, func(n Node) bool {
		switch x := n.(type) {
		case *Program:
			x.Hoisted()
		case *BlockStatement:
			x.Hoisted()
		case *SwitchStatement:
			x.Hoisted()
		}
		return true
	})
}
