package mode

import (
	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/input"
)

// Insert inserts every printable key at the current view's cursors; Esc
// returns to Normal.
type Insert struct {
	ctx *Context
}

// NewInsert returns an Insert mode bound to ctx.
func NewInsert(ctx *Context) *Insert { return &Insert{ctx: ctx} }

var _ input.Mode = (*Insert)(nil)

func (m *Insert) OnKeys(cursor *input.Cursor) input.Control {
	k, ok := cursor.Peek()
	if !ok {
		return input.ControlPending
	}
	cursor.Advance(1)

	vh, hasView := m.ctx.currentView()

	switch {
	case k.Code == input.KeyEsc:
		m.ctx.SetMode(New(m.ctx))
		return input.ControlContinue

	case k.Code == input.KeyEnter:
		if hasView {
			m.ctx.Views.InsertText(m.ctx.Buffers, vh, "\n")
		}
		return input.ControlContinue

	case k.Code == input.KeyBackspace:
		if hasView {
			m.backspace(vh)
		}
		return input.ControlContinue
	}

	if r, ok := k.Rune(); ok && hasView {
		m.ctx.Views.InsertText(m.ctx.Buffers, vh, string(r))
	}
	return input.ControlContinue
}

// backspace extends every bare-caret cursor one column back, leaves
// cursors that already carry a real selection as they are, then deletes
// every cursor's selection via DeleteText.
func (m *Insert) backspace(vh buffer.ViewHandle) {
	v := m.ctx.Views.Get(vh)
	if v == nil {
		return
	}
	buf := m.ctx.Buffers.Get(v.BufferHandle)
	if buf == nil {
		return
	}
	g := v.EditCursors(buf)
	cursors := g.Cursors()
	for i, c := range cursors {
		if c.Anchor == c.Position {
			from := buf.Saturate(buffer.Position{Line: c.Position.Line, Column: c.Position.Column - 1})
			g.SetCursor(i, buffer.Cursor{Anchor: from, Position: c.Position})
		}
	}
	g.Release()
	m.ctx.Views.DeleteText(m.ctx.Buffers, vh)
}
