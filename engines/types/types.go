// Package types names the script engines an executable unit can target.
package types

// Type identifies the engine that executes compiled content.
type Type string

const (
	// MetaJS is the tree-walking interpreter in engines/metajs.
	MetaJS Type = "metajs"
)

func (t Type) String() string { return string(t) }
