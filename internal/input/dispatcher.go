package input

import "github.com/pepper-edit/pepper/internal/register"

// Control is the result a Mode's OnKeys call returns after consuming some
// prefix of the pending keys.
type Control int

const (
	// ControlPending means the mode needs more keys before it can decide;
	// the dispatcher yields control back to the platform layer.
	ControlPending Control = iota
	// ControlContinue means the mode consumed a prefix and the dispatcher
	// should keep looping while keys remain.
	ControlContinue
	ControlQuit
	ControlQuitAll
	ControlSuspend
)

// Cursor walks the tail of a KeyBuffer a Mode is allowed to consume from;
// Advance moves it forward as keys are used.
type Cursor struct {
	buf   *KeyBuffer
	index int
}

// Index returns the cursor's current position in the buffer.
func (c *Cursor) Index() int { return c.index }

// Peek returns the next unconsumed key, if any.
func (c *Cursor) Peek() (Key, bool) {
	keys := c.buf.Keys()
	if c.index >= len(keys) {
		return Key{}, false
	}
	return keys[c.index], true
}

// Advance consumes n keys.
func (c *Cursor) Advance(n int) { c.index += n }

// Remaining returns every key the cursor hasn't consumed yet.
func (c *Cursor) Remaining() []Key {
	return c.buf.Keys()[c.index:]
}

// Mode is implemented by each of the editor's input modes (normal,
// insert, command-line, ...). OnKeys is called repeatedly while the
// dispatcher's consumed cursor is behind the buffer end; it must advance
// cursor by at least one key whenever it returns ControlContinue.
type Mode interface {
	OnKeys(cursor *Cursor) Control
}

// MatchResult is the key-map matcher's verdict for a pending key tail.
type MatchResult int

const (
	MatchNone MatchResult = iota
	MatchPrefix
	MatchReplace
)

// Matcher consults a per-mode key map against the tail of the buffer
// starting at s. A nil Matcher on the Dispatcher disables key-map
// expansion entirely.
type Matcher interface {
	Match(keys []Key) (MatchResult, []Key)
}

// Dispatcher drives the buffered-key-stream algorithm of spec.md §4.4:
// accumulate, consult the key-map matcher, hand consumed prefixes to the
// current Mode, record macros, and drain the event queue between steps.
type Dispatcher struct {
	Buffer  *KeyBuffer
	Mode    Mode
	Matcher Matcher

	recording      bool
	recordRegister register.Key
	registers      *register.Table

	// DrainEvents is called after each OnKeys step, hooked up to the
	// editor's event queue drain (§4.3). It may be left nil in tests.
	DrainEvents func()
}

// NewDispatcher returns a Dispatcher with an empty key buffer.
func NewDispatcher(regs *register.Table) *Dispatcher {
	return &Dispatcher{Buffer: NewKeyBuffer(), registers: regs}
}

// StartRecording begins appending the formatted text of every consumed
// key batch to reg.
func (d *Dispatcher) StartRecording(reg register.Key) {
	d.recording = true
	d.recordRegister = reg
	if d.registers != nil {
		d.registers.Clear(reg)
	}
}

// StopRecording ends macro recording.
func (d *Dispatcher) StopRecording() { d.recording = false }

// IsRecording reports whether a macro is currently being recorded.
func (d *Dispatcher) IsRecording() bool { return d.recording }

// Cancel implements the focus-change cancellation rule of spec.md §4.4:
// clear the key buffer and any active recording, and reset to mode.
func (d *Dispatcher) Cancel(defaultMode Mode) {
	d.Buffer.Truncate(0)
	d.recording = false
	d.Mode = defaultMode
}

// formatKeys renders keys back to their textual spec form, concatenated,
// for macro recording.
func formatKeys(keys []Key) string {
	var s string
	for _, k := range keys {
		s += k.String()
	}
	return s
}

// DispatchBatch runs the dispatcher algorithm against a newly-appended
// batch of keys, where s is the buffer length immediately before the
// batch was appended. On every return other than ControlPending the
// buffer has been truncated back to s, per spec.md §4.4 step 6; a
// ControlPending return leaves the pending keys in the buffer.
func (d *Dispatcher) DispatchBatch(s int, defaultMode Mode) Control {
	if d.Matcher != nil {
	matchLoop:
		for {
			tail := d.Buffer.Keys()[s:]
			kind, replacement := d.Matcher.Match(tail)
			switch kind {
			case MatchPrefix:
				return ControlPending
			case MatchReplace:
				d.Buffer.Truncate(s)
				d.Buffer.AppendKeys(replacement...)
			default:
				break matchLoop
			}
		}
	}

	index := s
	for index < d.Buffer.Len() {
		cursor := &Cursor{buf: d.Buffer, index: index}
		before := cursor.index
		ctl := d.Mode.OnKeys(cursor)

		if d.recording && cursor.index > before {
			consumed := d.Buffer.Keys()[before:cursor.index]
			if d.registers != nil {
				d.registers.Append(d.recordRegister, formatKeys(consumed))
			}
		}
		index = cursor.index

		if d.DrainEvents != nil {
			d.DrainEvents()
		}

		switch ctl {
		case ControlContinue:
			continue
		case ControlPending:
			// Leave the buffer intact and return immediately: the mode
			// needs more keys before it can decide (a count prefix, a
			// leader/multi-key binding), and the next batch's dispatch
			// must still see what's already been typed.
			return ControlPending
		default: // Quit, QuitAll, Suspend
			d.Mode = defaultMode
			d.Buffer.Truncate(s)
			return ctl
		}
	}

	d.Buffer.Truncate(s)
	return ControlContinue
}
