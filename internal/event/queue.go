// Package event implements the editor's double-buffered event queue,
// per spec.md §4.3.
package event

import "github.com/pepper-edit/pepper/internal/buffer"

// Kind tags the semantic meaning of an Event.
type Kind int

const (
	Idle Kind = iota
	BufferRead
	BufferInsertText
	BufferDeleteText
	BufferWrite
	BufferClose
	FixCursors
	BufferBreakpointsChanged
)

// Event is a tagged record produced by command handlers or mode
// dispatch and consumed re-entrantly by buffer/view/plugin reactions.
type Event struct {
	Kind Kind

	BufferHandle buffer.Handle
	Range        buffer.Range
	NewPath      string

	ViewHandle buffer.ViewHandle
}

// Queue is a double-buffered FIFO: producers always enqueue into the
// write side; Flip swaps read/write and Iterate walks the read side by
// index (not by consuming pop), so a consumer can look back at earlier
// events of its own generation without disturbing it. Consumers may
// enqueue into the write side while draining -- those events form the
// next generation, per spec.md §4.3/§9.
type Queue struct {
	sides [2][]Event
	write int
}

// New returns an empty event queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends ev to the current write side.
func (q *Queue) Enqueue(ev Event) {
	q.sides[q.write] = append(q.sides[q.write], ev)
}

// Flip swaps the read and write sides and returns the new read side's
// length. The previous read side is cleared and becomes the new write
// side.
func (q *Queue) Flip() int {
	read := q.write
	q.write = 1 - q.write
	q.sides[q.write] = q.sides[q.write][:0]
	return len(q.sides[read])
}

// readSide returns the slice currently holding the generation being
// drained (the side that is NOT the write side).
func (q *Queue) readSide() []Event {
	return q.sides[1-q.write]
}

// Iterate calls fn for every event in the current read-side generation,
// in FIFO order, by index. fn may trigger further Enqueue calls (which
// land on the write side, i.e. the next generation) without disturbing
// this iteration.
func (q *Queue) Iterate(fn func(Event)) {
	side := q.readSide()
	for i := 0; i < len(side); i++ {
		fn(side[i])
	}
}

// DrainAll repeatedly Flips and Iterates until a Flip finds the write
// side empty, per spec.md §4.3's drain-to-fixed-point rule. It is the
// one entry point command evaluation and mode dispatch should call
// between user-visible steps.
func (q *Queue) DrainAll(fn func(Event)) {
	for {
		n := q.Flip()
		if n == 0 {
			return
		}
		q.Iterate(fn)
	}
}
