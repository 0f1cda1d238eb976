package ast

// Hoisting lists the declarations that take effect before a statement list runs.
type Hoisting struct {
	// Vars are var-declared names found anywhere in the list, excluding nested functions.
	Vars []string
	// Lexical are let and const names declared directly in the list.
	Lexical []string
	// Functions are function declarations made directly in the list.
	Functions []*FunctionDeclaration
	// Nested are function declarations inside nested blocks of the list, excluding
	// nested function bodies. They are bound in the var scope as well as in their block.
	Nested []*FunctionDeclaration
}

// Hoist computes the declarations of a statement list.
func Hoist(list []Node) *Hoisting {
	h := &Hoisting{}
	seen := map[string]bool{}
	for _, n := range list {
		collectVars(n, h, seen, false)
		collectTopLevel(n, h)
	}
	return h
}

func collectTopLevel(n Node, h *Hoisting) {
	switch s := n.(type) {
	case *FunctionDeclaration:
		h.Functions = append(h.Functions, s)
	case *VariableDeclaration:
		if s.Kind != "var" {
			for _, d := range s.Declarations {
				h.Lexical = append(h.Lexical, BoundNames(d.ID)...)
			}
		}
	case *LabeledStatement:
		collectTopLevel(s.Body, h)
	}
}

func collectVars(n Node, h *Hoisting, seen map[string]bool, nested bool) {
	add := func(d *VariableDeclaration) {
		if d == nil || d.Kind != "var" {
			return
		}
		for _, decl := range d.Declarations {
			for _, name := range BoundNames(decl.ID) {
				if !seen[name] {
					seen[name] = true
					h.Vars = append(h.Vars, name)
				}
			}
		}
	}
	walkList := func(list []Node) {
		for _, c := range list {
			collectVars(c, h, seen, true)
		}
	}
	walk := func(c Node) {
		collectVars(c, h, seen, true)
	}

	switch s := n.(type) {
	case *FunctionDeclaration:
		if nested {
			h.Nested = append(h.Nested, s)
		}
	case *VariableDeclaration:
		add(s)
	case *BlockStatement:
		walkList(s.Body)
	case *IfStatement:
		walk(s.Consequent)
		if s.Alternate != nil {
			walk(s.Alternate)
		}
	case *ForStatement:
		if d, ok := s.Init.(*VariableDeclaration); ok {
			add(d)
		}
		walk(s.Body)
	case *ForInStatement:
		if d, ok := s.Left.(*VariableDeclaration); ok {
			add(d)
		}
		walk(s.Body)
	case *ForOfStatement:
		if d, ok := s.Left.(*VariableDeclaration); ok {
			add(d)
		}
		walk(s.Body)
	case *WhileStatement:
		walk(s.Body)
	case *DoWhileStatement:
		walk(s.Body)
	case *TryStatement:
		walk(s.Block)
		if s.Handler != nil {
			walk(s.Handler.Body)
		}
		if s.Finalizer != nil {
			walk(s.Finalizer)
		}
	case *SwitchStatement:
		for _, c := range s.Cases {
			walkList(c.Consequent)
		}
	case *LabeledStatement:
		collectVars(s.Body, h, seen, nested)
	case *WithStatement:
		walk(s.Body)
	}
}

// BoundNames returns the identifiers a binding target introduces, in source order.
func BoundNames(target Node) []string {
	var names []string
	var visit func(Node)
	visit = func(n Node) {
		switch t := n.(type) {
		case *Identifier:
			names = append(names, t.Name)
		case *AssignmentPattern:
			visit(t.Left)
		case *RestElement:
			visit(t.Argument)
		case *ArrayPattern:
			for _, e := range t.Elements {
				if e != nil {
					visit(e)
				}
			}
		case *ObjectPattern:
			for _, p := range t.Properties {
				switch prop := p.(type) {
				case *Property:
					visit(prop.Value)
				case *RestElement:
					visit(prop.Argument)
				}
			}
		}
	}
	if target != nil {
		visit(target)
	}
	return names
}
