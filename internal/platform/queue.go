// Package platform multiplexes every asynchronous input source (process
// output, incoming session connections, periodic ticks) onto a single
// channel the editor's one owning goroutine drains, per spec.md §5:
// "implementations may use background threads internally, but those
// threads synchronize by handing buffers to the main thread via a
// request queue."
package platform

import (
	"time"

	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/session"
)

// Kind tags a Request's payload.
type Kind int

const (
	KindProcessOutput Kind = iota
	KindSessionEvent
	KindTick
)

// Request is one item handed to the editor's main loop.
type Request struct {
	Kind Kind

	ProcessEvent process.OutputEvent
	SessionEvent session.Incoming
}

// Queue is the fan-in point: every ForwardXxx call starts a new
// goroutine that copies from a source channel into Queue's single output
// channel, never touching editor state itself.
type Queue struct {
	requests chan Request
	stop     chan struct{}
}

// NewQueue returns an empty request queue.
func NewQueue() *Queue {
	return &Queue{requests: make(chan Request, 256), stop: make(chan struct{})}
}

// Requests returns the channel the editor's main loop should range over.
func (q *Queue) Requests() <-chan Request { return q.requests }

// Stop signals every forwarding goroutine started on this queue to exit.
// Safe to call once.
func (q *Queue) Stop() { close(q.stop) }

// ForwardProcessEvents copies every OutputEvent from pool onto the queue.
func (q *Queue) ForwardProcessEvents(pool *process.Pool) {
	go func() {
		for {
			select {
			case ev := <-pool.Events():
				q.requests <- Request{Kind: KindProcessOutput, ProcessEvent: ev}
			case <-q.stop:
				return
			}
		}
	}()
}

// ForwardSessionEvents copies every Incoming item from srv onto the
// queue.
func (q *Queue) ForwardSessionEvents(srv *session.Server) {
	go func() {
		for {
			select {
			case ev := <-srv.Incoming():
				q.requests <- Request{Kind: KindSessionEvent, SessionEvent: ev}
			case <-q.stop:
				return
			}
		}
	}()
}

// ForwardTicks emits a KindTick request every interval, driving the idle
// render/housekeeping pass even when no other event arrives.
func (q *Queue) ForwardTicks(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				q.requests <- Request{Kind: KindTick}
			case <-q.stop:
				return
			}
		}
	}()
}
