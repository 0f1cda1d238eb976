// Package ast defines the closed set of syntax nodes consumed by the metajs evaluator.
//
// Node shapes follow the ESTree vocabulary. Every node records the byte range of the
// program text it was parsed from, which the evaluator uses to recover function source.
package ast

// Range is a half-open byte interval [Start, End) into the program text.
type Range struct {
	Start int
	End   int
}

// Span is embedded in every node type.
type Span struct {
	Loc Range
}

// Range returns the byte interval covered by the node.
func (s Span) Range() Range { return s.Loc }

func (Span) node() {}

// Node is implemented by every syntax node in this package and nowhere else.
type Node interface {
	// Type returns the ESTree type name, e.g. "BinaryExpression".
	Type() string
	Range() Range
	node()
}

// Slice returns the program text covered by r, clamped to the bounds of text.
func Slice(text string, r Range) string {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}
