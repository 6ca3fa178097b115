package buffer

import "sort"

// Cursor is a pair of buffer positions: where the selection was started
// (Anchor) and where it currently ends (Position). A cursor with
// Anchor == Position is a plain caret.
type Cursor struct {
	Anchor   Position
	Position Position
}

// selectionRange returns the cursor's selection as a normalized
// (From <= To) Range, regardless of which end is the anchor.
func (c Cursor) selectionRange() Range {
	if c.Anchor.Less(c.Position) {
		return Range{From: c.Anchor, To: c.Position}
	}
	return Range{From: c.Position, To: c.Anchor}
}

// ViewHandle stably identifies a BufferView.
type ViewHandle int

// View is a per-client viewport onto a buffer, holding an ordered,
// deduplicated set of cursors. The first cursor, by convention, is the
// "main" cursor (spec.md §3).
type View struct {
	Handle       ViewHandle
	BufferHandle Handle
	cursors      []Cursor
}

// NewView creates a view on the given buffer with a single cursor at the
// origin.
func NewView(handle ViewHandle, bufferHandle Handle) *View {
	return &View{
		Handle:       handle,
		BufferHandle: bufferHandle,
		cursors:      []Cursor{{}},
	}
}

// MainCursor returns the view's designated main cursor.
func (v *View) MainCursor() Cursor {
	if len(v.cursors) == 0 {
		return Cursor{}
	}
	return v.cursors[0]
}

// Cursors returns a read-only snapshot of the cursor set, in normalized
// order.
func (v *View) Cursors() []Cursor {
	out := make([]Cursor, len(v.cursors))
	copy(out, v.cursors)
	return out
}

// Guard is a scoped handle on the view's cursor set. Handlers mutate
// cursors through Guard.SetCursor / Guard.Add; Release (called by the
// acquirer once its mutations are done) sorts, merges overlapping ranges,
// and saturates every cursor to valid buffer bounds, so
// command handlers never have to reason about ordering themselves
// (spec.md §9).
type Guard struct {
	view *View
	buf  *TextBuffer
}

// EditCursors acquires a normalization guard over v's cursor set,
// scoped to buf for saturation, and returns it for direct mutation via
// Guard.Cursors/Guard.SetCursor. Callers must call Release when done
// (typically via defer).
func (v *View) EditCursors(buf *TextBuffer) *Guard {
	return &Guard{view: v, buf: buf}
}

// Cursors exposes the live (unnormalized, mutable) cursor slice for the
// duration of the guard.
func (g *Guard) Cursors() []Cursor { return g.view.cursors }

// SetCursor overwrites the cursor at index i.
func (g *Guard) SetCursor(i int, c Cursor) {
	if i >= 0 && i < len(g.view.cursors) {
		g.view.cursors[i] = c
	}
}

// Add appends a new cursor to the set.
func (g *Guard) Add(c Cursor) {
	g.view.cursors = append(g.view.cursors, c)
}

// Release sorts cursors by position, merges overlapping selections, and
// saturates every cursor to the buffer's current bounds. It is safe (and
// expected) to call on every exit path of a cursor mutation, including
// error paths.
func (g *Guard) Release() {
	cs := g.view.cursors
	for i, c := range cs {
		if g.buf != nil {
			c.Anchor = g.buf.Saturate(c.Anchor)
			c.Position = g.buf.Saturate(c.Position)
		}
		cs[i] = c
	}

	sort.Slice(cs, func(i, j int) bool {
		return cs[i].selectionRange().From.Less(cs[j].selectionRange().From)
	})

	merged := cs[:0]
	for _, c := range cs {
		if len(merged) == 0 {
			merged = append(merged, c)
			continue
		}
		last := &merged[len(merged)-1]
		lastRange := last.selectionRange()
		curRange := c.selectionRange()
		if curRange.From.Less(lastRange.To) || curRange.From == lastRange.To {
			to := lastRange.To
			if to.Less(curRange.To) {
				to = curRange.To
			}
			*last = Cursor{Anchor: lastRange.From, Position: to}
			continue
		}
		merged = append(merged, c)
	}
	if len(merged) == 0 {
		merged = []Cursor{{}}
	}
	g.view.cursors = merged
}
