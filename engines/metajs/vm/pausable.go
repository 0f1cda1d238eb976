package vm

import "sync"

// gate wraps one evaluation step so it can be deferred and resumed. It fires at most
// once, either the natural step or the alternative continuation with a substituted value.
type gate struct {
	m      *Machine
	gen    uint64
	step   func()
	alt    func(Value)
	fired  bool
	locked bool
}

func (m *Machine) newGate(step func(), alt func(Value)) *gate {
	return &gate{m: m, gen: m.gen, step: step, alt: alt}
}

// fire runs the natural step unless the gate is paused or already fired.
func (g *gate) fire() {
	if g.fired || g.locked {
		return
	}
	g.fired = true
	g.step()
}

func (g *gate) pause() *Resumer {
	if g.fired || g.locked {
		return nil
	}
	g.locked = true
	g.m.paused++
	return &Resumer{g: g}
}

func (g *gate) release() bool {
	if !g.locked || g.gen != g.m.gen {
		return false
	}
	g.locked = false
	g.m.paused--
	return !g.fired
}

// Resumer continues a paused evaluation step. Its methods are safe for use from any
// goroutine; only the first call has an effect.
type Resumer struct {
	g    *gate
	once sync.Once
}

// Resume runs the paused step as if it had never been paused.
func (r *Resumer) Resume() {
	r.once.Do(func() {
		r.g.m.enqueue(r.g.gen, func() {
			if r.g.release() {
				r.g.fire()
			}
		})
	})
}

// ResumeWith skips the paused step and continues with v as its result.
func (r *Resumer) ResumeWith(v Value) {
	r.once.Do(func() {
		r.g.m.enqueue(r.g.gen, func() {
			if r.g.release() {
				r.g.fired = true
				r.g.alt(orUndefined(v))
			}
		})
	})
}
