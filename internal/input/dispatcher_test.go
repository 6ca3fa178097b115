package input

import (
	"testing"

	"github.com/pepper-edit/pepper/internal/register"
)

// consumeOneMode consumes exactly one key per OnKeys call and reports
// ControlContinue until the buffer is exhausted mid-call, at which point
// the dispatcher loop itself stops (index == Len()); it never returns
// ControlPending, so tests can assert on recording/drain behavior without
// a real mode's semantics.
type consumeOneMode struct{ calls int }

func (m *consumeOneMode) OnKeys(c *Cursor) Control {
	m.calls++
	c.Advance(1)
	return ControlContinue
}

// pendingAfterOneMode consumes a single key then asks for more.
type pendingAfterOneMode struct{ consumed bool }

func (m *pendingAfterOneMode) OnKeys(c *Cursor) Control {
	if !m.consumed {
		m.consumed = true
		c.Advance(1)
		return ControlContinue
	}
	return ControlPending
}

func TestDispatcher_ConsumesEveryKeyAndTruncates(t *testing.T) {
	d := NewDispatcher(register.New())
	mode := &consumeOneMode{}
	d.Mode = mode

	if err := d.Buffer.Append("abc"); err != nil {
		t.Fatalf("append: %v", err)
	}
	ctl := d.DispatchBatch(0, mode)
	if ctl != ControlContinue {
		t.Fatalf("got %v, want ControlContinue", ctl)
	}
	if mode.calls != 3 {
		t.Fatalf("got %d OnKeys calls, want 3", mode.calls)
	}
	if d.Buffer.Len() != 0 {
		t.Fatalf("got buffer len %d, want 0 (truncated back to batch start)", d.Buffer.Len())
	}
}

func TestDispatcher_PendingLeavesBufferIntact(t *testing.T) {
	d := NewDispatcher(register.New())
	mode := &pendingAfterOneMode{}
	d.Mode = mode

	// Two keys: the first OnKeys call consumes "a" and returns
	// ControlContinue, the second sees the cursor at "b" and returns
	// ControlPending. Only with a second key does the buffer actually
	// reach the ControlPending branch under test.
	if err := d.Buffer.Append("ab"); err != nil {
		t.Fatalf("append: %v", err)
	}
	ctl := d.DispatchBatch(0, mode)
	if ctl != ControlPending {
		t.Fatalf("got %v, want ControlPending", ctl)
	}
	if d.Buffer.Len() != 2 {
		t.Fatalf("got buffer len %d, want 2 (ControlPending must not truncate)", d.Buffer.Len())
	}
}

func TestDispatcher_DrainEventsCalledPerStep(t *testing.T) {
	d := NewDispatcher(register.New())
	mode := &consumeOneMode{}
	d.Mode = mode
	drains := 0
	d.DrainEvents = func() { drains++ }

	_ = d.Buffer.Append("abc")
	d.DispatchBatch(0, mode)
	if drains != 3 {
		t.Fatalf("got %d drains, want 3 (one per OnKeys step)", drains)
	}
}

func TestDispatcher_RecordingAppendsFormattedKeysToRegister(t *testing.T) {
	regs := register.New()
	d := NewDispatcher(regs)
	mode := &consumeOneMode{}
	d.Mode = mode
	d.StartRecording('q')

	_ = d.Buffer.Append("ab")
	d.DispatchBatch(0, mode)

	if got := regs.Get('q'); got != "ab" {
		t.Fatalf("got register contents %q, want %q", got, "ab")
	}
}

func TestDispatcher_StartRecordingClearsPriorContents(t *testing.T) {
	regs := register.New()
	regs.Set('q', "stale")
	d := NewDispatcher(regs)
	d.StartRecording('q')
	if got := regs.Get('q'); got != "" {
		t.Fatalf("got %q, want StartRecording to clear the register", got)
	}
}

func TestDispatcher_CancelResetsBufferAndMode(t *testing.T) {
	d := NewDispatcher(register.New())
	d.Mode = &consumeOneMode{}
	_ = d.Buffer.Append("abc")
	d.StartRecording('q')

	fallback := &pendingAfterOneMode{}
	d.Cancel(fallback)

	if d.Buffer.Len() != 0 {
		t.Fatalf("got buffer len %d, want 0", d.Buffer.Len())
	}
	if d.IsRecording() {
		t.Fatal("expected recording to stop")
	}
	if d.Mode != Mode(fallback) {
		t.Fatal("expected mode to be reset to the fallback")
	}
}

// MatchReplace rewrites the pending tail before any Mode ever sees it,
// letting a key-map turn e.g. "jj" into a single <esc>.
type replaceJJMatcher struct{}

func (replaceJJMatcher) Match(keys []Key) (MatchResult, []Key) {
	if len(keys) == 1 {
		if r, ok := keys[0].Rune(); ok && r == 'j' {
			return MatchPrefix, nil
		}
	}
	if len(keys) == 2 {
		r0, ok0 := keys[0].Rune()
		r1, ok1 := keys[1].Rune()
		if ok0 && ok1 && r0 == 'j' && r1 == 'j' {
			return MatchReplace, []Key{{Code: KeyEsc}}
		}
	}
	return MatchNone, nil
}

func TestDispatcher_MatcherReplacesBeforeModeSeesKeys(t *testing.T) {
	d := NewDispatcher(register.New())
	d.Matcher = replaceJJMatcher{}
	var seen []Key
	mode := modeFunc(func(c *Cursor) Control {
		k, _ := c.Peek()
		seen = append(seen, k)
		c.Advance(1)
		return ControlContinue
	})
	d.Mode = mode

	_ = d.Buffer.Append("jj")
	d.DispatchBatch(0, mode)

	if len(seen) != 1 || seen[0].Code != KeyEsc {
		t.Fatalf("got %+v, want a single <esc> key", seen)
	}
}

func TestDispatcher_MatcherPrefixYieldsControlPending(t *testing.T) {
	d := NewDispatcher(register.New())
	d.Matcher = replaceJJMatcher{}
	mode := modeFunc(func(c *Cursor) Control {
		t.Fatal("mode should not run while the matcher awaits more input")
		return ControlContinue
	})
	d.Mode = mode

	_ = d.Buffer.Append("j")
	ctl := d.DispatchBatch(0, mode)
	if ctl != ControlPending {
		t.Fatalf("got %v, want ControlPending", ctl)
	}
}

type modeFunc func(c *Cursor) Control

func (f modeFunc) OnKeys(c *Cursor) Control { return f(c) }
