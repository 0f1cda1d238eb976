package vm

import "github.com/robbyt/go-metajs/engines/metajs/ast"

// Phase tells at which point of an evaluation step an Event is reported.
type Phase uint8

const (
	// PhaseEnter is reported before a node is evaluated.
	PhaseEnter Phase = iota
	// PhaseExit is reported after a node completed normally, with its value.
	PhaseExit
	// PhaseApply is reported before a callable is invoked.
	PhaseApply
	// PhaseBind is reported when a parameter is bound on function entry.
	PhaseBind
)

func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "enter"
	case PhaseExit:
		return "exit"
	case PhaseApply:
		return "apply"
	default:
		return "bind"
	}
}

// CallInfo describes an invocation reported with PhaseApply.
type CallInfo struct {
	This   Value
	Callee *Object
	Args   []Value
}

// Event is delivered to the Interceptor.
type Event struct {
	Phase Phase
	Node  ast.Node
	// Value is the node result on exit or the bound value on bind.
	Value Value
	// Name is the parameter name on bind.
	Name  string
	Call  *CallInfo
	Scope *Scope

	g *gate
}

// Pause defers the step the event belongs to. It returns nil when the step cannot be
// paused (bind events) or has already been paused.
func (e Event) Pause() *Resumer {
	if e.g == nil {
		return nil
	}
	return e.g.pause()
}

// Interceptor observes evaluation. It runs on the evaluating goroutine and must not block;
// long-running work should Pause and resume from elsewhere.
type Interceptor func(Event)

func (m *Machine) intercept(e Event) {
	if m.interceptor != nil {
		m.interceptor(e)
	}
}
