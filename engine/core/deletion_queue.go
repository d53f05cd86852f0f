package core

type deletor struct {
	kind  ResourceKind
	label string
	fn    func()
}

// DeletionQueue holds teardown actions and runs them newest first.
// Every create call pushes its own inverse right after it succeeds, so
// flushing the queue tears things down in reverse construction order.
type DeletionQueue struct {
	name     string
	deletors []deletor
}

func NewDeletionQueue(name string) *DeletionQueue {
	return &DeletionQueue{name: name}
}

func (dq *DeletionQueue) Push(kind ResourceKind, label string, fn func()) {
	if fn == nil {
		return
	}
	dq.deletors = append(dq.deletors, deletor{kind: kind, label: label, fn: fn})
}

// Flush runs all actions in reverse order of registration and empties the
// queue. Flushing an empty queue does nothing.
func (dq *DeletionQueue) Flush() {
	if len(dq.deletors) == 0 {
		return
	}
	LogDebug("Flushing deletion queue '%s' (%d entries)...", dq.name, len(dq.deletors))
	for i := len(dq.deletors) - 1; i >= 0; i-- {
		d := dq.deletors[i]
		LogDebug("Destroying %s '%s'", d.kind, d.label)
		d.fn()
	}
	dq.deletors = nil
}

func (dq *DeletionQueue) Len() int {
	return len(dq.deletors)
}
