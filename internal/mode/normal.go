package mode

import (
	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/input"
)

// Normal is the editor's default mode: single keys move the cursor or
// enter another mode; nothing is inserted into the buffer.
type Normal struct {
	ctx *Context
}

var _ input.Mode = (*Normal)(nil)

// OnKeys consumes exactly one key per call, matching spec.md §4.4's
// "consume any prefix" contract at its simplest (a prefix of length one).
func (n *Normal) OnKeys(cursor *input.Cursor) input.Control {
	k, ok := cursor.Peek()
	if !ok {
		return input.ControlPending
	}
	cursor.Advance(1)

	switch {
	case k.Code == input.KeyEsc:
		return input.ControlContinue

	case matchesRune(k, 'i'):
		n.ctx.SetMode(NewInsert(n.ctx))
		return input.ControlContinue

	case matchesRune(k, ':'):
		n.ctx.SetMode(NewCommandLine(n.ctx))
		return input.ControlContinue

	case matchesRune(k, 'h') || k.Code == input.KeyLeft:
		n.moveCursors(-1, 0)
		return input.ControlContinue
	case matchesRune(k, 'l') || k.Code == input.KeyRight:
		n.moveCursors(1, 0)
		return input.ControlContinue
	case matchesRune(k, 'j') || k.Code == input.KeyDown:
		n.moveCursors(0, 1)
		return input.ControlContinue
	case matchesRune(k, 'k') || k.Code == input.KeyUp:
		n.moveCursors(0, -1)
		return input.ControlContinue

	case matchesRune(k, 'x'):
		n.deleteForward()
		return input.ControlContinue

	case matchesRune(k, 'u'):
		if vh, ok := n.ctx.currentView(); ok {
			n.ctx.Views.ApplyUndo(n.ctx.Buffers, vh)
		}
		return input.ControlContinue

	case matchesRune(k, 'q'):
		return input.ControlQuit
	}

	return input.ControlContinue
}

func matchesRune(k input.Key, r rune) bool {
	kr, ok := k.Rune()
	return ok && kr == r
}

func (n *Normal) moveCursors(dCol, dLine int) {
	vh, ok := n.ctx.currentView()
	if !ok {
		return
	}
	v := n.ctx.Views.Get(vh)
	if v == nil {
		return
	}
	buf := n.ctx.Buffers.Get(v.BufferHandle)
	if buf == nil {
		return
	}
	g := v.EditCursors(buf)
	cursors := g.Cursors()
	for i, c := range cursors {
		pos := buffer.Position{Line: c.Position.Line + dLine, Column: c.Position.Column + dCol}
		pos = buf.Saturate(pos)
		g.SetCursor(i, buffer.Cursor{Anchor: pos, Position: pos})
	}
	g.Release()
}

func (n *Normal) deleteForward() {
	vh, ok := n.ctx.currentView()
	if !ok {
		return
	}
	v := n.ctx.Views.Get(vh)
	if v == nil {
		return
	}
	buf := n.ctx.Buffers.Get(v.BufferHandle)
	if buf == nil {
		return
	}
	g := v.EditCursors(buf)
	cursors := g.Cursors()
	for i, c := range cursors {
		if c.Anchor == c.Position {
			to := buf.Saturate(buffer.Position{Line: c.Position.Line, Column: c.Position.Column + 1})
			g.SetCursor(i, buffer.Cursor{Anchor: c.Position, Position: to})
		}
	}
	g.Release()
	n.ctx.Views.DeleteText(n.ctx.Buffers, vh)
}
