package vm

// CompletionKind tells how an evaluation step finished.
type CompletionKind uint8

const (
	Normal CompletionKind = iota
	Return
	Break
	Continue
	Throw
	Yield
	// Fault is a fatal, uncatchable failure of the machine itself.
	Fault
)

func (k CompletionKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Return:
		return "return"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Throw:
		return "throw"
	case Yield:
		return "yield"
	default:
		return "fault"
	}
}

// Completion is the single result type delivered to every continuation.
// A nil Value on a statement completion means the statement produced no value.
type Completion struct {
	Kind  CompletionKind
	Value Value
	Label string
	Err   error
	// Ref names the binding or property the value was read from, when there is one.
	Ref *Reference
}

// Continuation receives the completion of one evaluation step.
type Continuation func(Completion)

func normal(v Value) Completion { return Completion{Kind: Normal, Value: v} }

func (c Completion) abrupt() bool { return c.Kind != Normal }

// Reference is a resolved binding (Scope set) or a property of a base value (Base set).
type Reference struct {
	Scope *Scope
	Base  Value
	Name  string
}
