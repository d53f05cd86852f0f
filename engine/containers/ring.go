package containers

import "fmt"

// Ring is a fixed set of slots selected by a monotonically increasing counter.
// Slot i serves every frame whose number is congruent to i modulo the depth.
type Ring[T any] struct {
	slots   []T
	counter uint64
}

// NewRing builds depth slots using create, which receives the slot index.
func NewRing[T any](depth int, create func(index int) (T, error)) (*Ring[T], error) {
	if depth <= 0 {
		return nil, fmt.Errorf("ring depth must be positive, got %d", depth)
	}
	r := &Ring[T]{slots: make([]T, 0, depth)}
	for i := 0; i < depth; i++ {
		slot, err := create(i)
		if err != nil {
			return nil, err
		}
		r.slots = append(r.slots, slot)
	}
	return r, nil
}

// Current returns the slot for the current counter value.
func (r *Ring[T]) Current() T {
	return r.slots[r.Index()]
}

// Index returns counter % depth.
func (r *Ring[T]) Index() int {
	return int(r.counter % uint64(len(r.slots)))
}

// At returns the slot that serves the given counter value.
func (r *Ring[T]) At(counter uint64) T {
	return r.slots[counter%uint64(len(r.slots))]
}

func (r *Ring[T]) Advance() {
	r.counter++
}

func (r *Ring[T]) Counter() uint64 {
	return r.counter
}

func (r *Ring[T]) Depth() int {
	return len(r.slots)
}

// Each visits every slot in index order.
func (r *Ring[T]) Each(fn func(index int, slot T)) {
	for i, s := range r.slots {
		fn(i, s)
	}
}
