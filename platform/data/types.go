package data

// Types names the kind of an evaluation result.
type Types string

const (
	NONE     Types = "none"
	BOOL     Types = "bool"
	FLOAT    Types = "float"
	INT      Types = "int"
	STRING   Types = "string"
	LIST     Types = "list"
	MAP      Types = "map"
	FUNCTION Types = "function"
	ERROR    Types = "error"
)
