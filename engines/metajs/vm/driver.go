package vm

import (
	"context"
	"slices"
)

// push schedules a task on the machine's LIFO stack.
func (m *Machine) push(task func()) {
	m.tasks = append(m.tasks, task)
}

// enqueue hands a task to the evaluating goroutine. It may be called from any goroutine.
// Tasks from an abandoned run generation are dropped.
func (m *Machine) enqueue(gen uint64, task func()) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.inbox = append(m.inbox, task)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// takeInbox moves resumed tasks onto the stack so the earliest resumption runs first.
func (m *Machine) takeInbox() bool {
	m.mu.Lock()
	tasks := m.inbox
	m.inbox = nil
	m.mu.Unlock()
	if len(tasks) == 0 {
		return false
	}
	slices.Reverse(tasks)
	m.tasks = append(m.tasks, tasks...)
	return true
}

// abandon invalidates every outstanding gate so resumers left over from a cancelled run
// cannot leak into the next one.
func (m *Machine) abandon() {
	m.mu.Lock()
	m.gen++
	m.inbox = nil
	m.mu.Unlock()
	m.paused = 0
	select {
	case <-m.wake:
	default:
	}
}

// drain runs tasks above base until done reports completion. When only paused work is
// left it waits for a resumption or for ctx to end.
func (m *Machine) drain(ctx context.Context, base int, done func() bool) error {
	for !done() {
		if len(m.tasks) > base {
			last := len(m.tasks) - 1
			task := m.tasks[last]
			m.tasks[last] = nil
			m.tasks = m.tasks[:last]
			task()
			continue
		}
		if m.takeInbox() {
			continue
		}
		if m.paused == 0 {
			return ErrStalled
		}
		m.logger.Debug("Waiting for paused evaluation", "paused", m.paused)
		select {
		case <-m.wake:
		case <-ctx.Done():
			m.tasks = m.tasks[:base]
			m.abandon()
			return ctx.Err()
		}
	}
	return nil
}

// runToCompletion starts a step and drains until its continuation has fired.
func (m *Machine) runToCompletion(start func(Continuation)) (Completion, error) {
	var result Completion
	finished := false
	base := len(m.tasks)
	start(func(c Completion) {
		result = c
		finished = true
	})
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.drain(ctx, base, func() bool { return finished }); err != nil {
		return Completion{}, err
	}
	return result, nil
}
