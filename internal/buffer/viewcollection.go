package buffer

// ViewCollection owns every BufferView, and tracks which views are
// siblings (distinct View instances pointed at the same buffer handle),
// so edits performed through one view can be mirrored into the others
// per spec.md §4.5.
type ViewCollection struct {
	views []*View
}

// NewViewCollection returns an empty view collection.
func NewViewCollection() *ViewCollection {
	return &ViewCollection{}
}

// New creates a view on bufferHandle and returns its handle.
func (c *ViewCollection) New(bufferHandle Handle) ViewHandle {
	for i, slot := range c.views {
		if slot == nil {
			h := ViewHandle(i)
			c.views[i] = NewView(h, bufferHandle)
			return h
		}
	}
	h := ViewHandle(len(c.views))
	c.views = append(c.views, NewView(h, bufferHandle))
	return h
}

// Get returns the view for h, or nil if h is invalid or removed.
func (c *ViewCollection) Get(h ViewHandle) *View {
	if h < 0 || int(h) >= len(c.views) {
		return nil
	}
	return c.views[h]
}

// Remove drops a single view (e.g. on client disconnect).
func (c *ViewCollection) Remove(h ViewHandle) {
	if h < 0 || int(h) >= len(c.views) {
		return
	}
	c.views[h] = nil
}

// RemoveAllOn removes every view on bufferHandle, e.g. when the
// underlying buffer closes (spec.md §3 lifecycle summary).
func (c *ViewCollection) RemoveAllOn(bufferHandle Handle) {
	for i, v := range c.views {
		if v != nil && v.BufferHandle == bufferHandle {
			c.views[i] = nil
		}
	}
}

// All iterates every live view handle in ascending order.
func (c *ViewCollection) All(fn func(ViewHandle, *View)) {
	for i, v := range c.views {
		if v != nil {
			fn(ViewHandle(i), v)
		}
	}
}

// Siblings returns every other live view sharing of's buffer handle.
func (c *ViewCollection) Siblings(of ViewHandle) []*View {
	acting := c.Get(of)
	if acting == nil {
		return nil
	}
	var out []*View
	for _, v := range c.views {
		if v != nil && v.Handle != of && v.BufferHandle == acting.BufferHandle {
			out = append(out, v)
		}
	}
	return out
}

// ShiftPosition applies the standard anchor/position rewrite rule to pos
// given that an edit of kind affecting [rng.From, rng.To) was just
// performed: an insert at/before pos pushes it forward by the inserted
// span; a delete containing pos collapses it to rng.From; a delete
// before pos shifts it back by the removed span. Positions strictly
// before rng.From are never affected.
func ShiftPosition(pos Position, kind EditKind, rng Range) Position {
	switch kind {
	case EditInsert:
		if pos.Less(rng.From) {
			return pos
		}
		lineDelta := rng.To.Line - rng.From.Line
		if pos.Line == rng.From.Line {
			if lineDelta == 0 {
				return Position{Line: pos.Line, Column: pos.Column + (rng.To.Column - rng.From.Column)}
			}
			return Position{Line: pos.Line + lineDelta, Column: pos.Column - rng.From.Column + rng.To.Column}
		}
		return Position{Line: pos.Line + lineDelta, Column: pos.Column}

	case EditDelete:
		if pos.Less(rng.From) {
			return pos
		}
		if pos.Less(rng.To) || pos == rng.To {
			return rng.From
		}
		lineDelta := rng.To.Line - rng.From.Line
		if pos.Line == rng.To.Line {
			if lineDelta == 0 {
				return Position{Line: pos.Line, Column: pos.Column - (rng.To.Column - rng.From.Column)}
			}
			return Position{Line: pos.Line - lineDelta, Column: pos.Column - rng.To.Column + rng.From.Column}
		}
		return Position{Line: pos.Line - lineDelta, Column: pos.Column}
	}
	return pos
}

// shiftCursor rewrites both ends of a cursor by the same rule.
func shiftCursor(c Cursor, kind EditKind, rng Range) Cursor {
	return Cursor{
		Anchor:   ShiftPosition(c.Anchor, kind, rng),
		Position: ShiftPosition(c.Position, kind, rng),
	}
}

// BroadcastEdit shifts every cursor of every sibling of the acting view
// by the same rule the acting view's own cursor was just rewritten with.
func (c *ViewCollection) BroadcastEdit(bufs *Collection, actingView ViewHandle, kind EditKind, rng Range) {
	for _, sib := range c.Siblings(actingView) {
		buf := bufs.Get(sib.BufferHandle)
		g := sib.EditCursors(buf)
		for i, cur := range g.Cursors() {
			g.SetCursor(i, shiftCursor(cur, kind, rng))
		}
		g.Release()
	}
}

// InsertText applies text at every cursor of the view named by
// viewHandle (processed from the buffer's last cursor to its first, so
// earlier positions stay valid while later ones are edited), mirrors
// each resulting range into sibling views, and leaves the acting view's
// own cursor set guard-normalized. It implements spec.md §4.5's edit
// propagation for an insertion.
func (c *ViewCollection) InsertText(bufs *Collection, viewHandle ViewHandle, text string) {
	v := c.Get(viewHandle)
	if v == nil {
		return
	}
	buf := bufs.Get(v.BufferHandle)
	if buf == nil {
		return
	}

	g := v.EditCursors(buf)
	cursors := g.Cursors()
	for i := len(cursors) - 1; i >= 0; i-- {
		cur := cursors[i]
		rng := buf.Insert(cur.Position, text)
		g.SetCursor(i, Cursor{Anchor: rng.To, Position: rng.To})
		c.BroadcastEdit(bufs, viewHandle, EditInsert, rng)
	}
	g.Release()
}

// DeleteText removes the selection at every cursor of the view (or, for
// a bare caret, nothing), mirrors each resulting range into sibling
// views, and leaves the acting view's cursor set guard-normalized.
func (c *ViewCollection) DeleteText(bufs *Collection, viewHandle ViewHandle) {
	v := c.Get(viewHandle)
	if v == nil {
		return
	}
	buf := bufs.Get(v.BufferHandle)
	if buf == nil {
		return
	}

	g := v.EditCursors(buf)
	cursors := g.Cursors()
	for i := len(cursors) - 1; i >= 0; i-- {
		cur := cursors[i]
		sel := cur.selectionRange()
		if sel.From == sel.To {
			continue
		}
		rng := buf.Delete(sel)
		g.SetCursor(i, Cursor{Anchor: rng.From, Position: rng.From})
		c.BroadcastEdit(bufs, viewHandle, EditDelete, rng)
	}
	g.Release()
}

// ApplyUndo pops the next inverse edit off the buffer's undo stack (if
// any) and applies the same cursor-rewrite/broadcast rule undo/redo uses
// per spec.md §4.5: the acting view's cursor that owns the edit moves to
// the endpoint of the affected range (insert -> range.To, remove ->
// range.From), and siblings are shifted by the same rule.
func (c *ViewCollection) ApplyUndo(bufs *Collection, viewHandle ViewHandle) bool {
	v := c.Get(viewHandle)
	if v == nil {
		return false
	}
	buf := bufs.Get(v.BufferHandle)
	if buf == nil {
		return false
	}
	edit, ok := buf.PopUndo()
	if !ok {
		return false
	}
	rng := buf.ApplyUndoEdit(edit)

	endpoint := rng.To
	if edit.Kind == EditDelete {
		endpoint = rng.From
	}

	g := v.EditCursors(buf)
	for i := range g.Cursors() {
		g.SetCursor(i, Cursor{Anchor: endpoint, Position: endpoint})
	}
	g.Release()

	c.BroadcastEdit(bufs, viewHandle, edit.Kind, rng)
	return true
}
