// Package render turns editor state into a per-client display frame. It
// is a pure function of state (buffer, view, client, status bar, mode) to
// a Frame; it owns no terminal handle itself, so cmd/pepper's client is
// the only place a Frame meets tcell, matching spec.md §4.7's render
// loop description and generalizing the cell-setting primitives of the
// teacher's Region/RowView/Buf.DrawStatus drawing code.
package render

import "github.com/gdamore/tcell"

// Cell is one terminal cell: a rune plus its display style.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// Frame is a flat, row-major grid of cells sized to a client's viewport,
// plus the terminal cursor position to report back to the platform
// layer.
type Frame struct {
	Width, Height int
	Cells         []Cell

	CursorX, CursorY int
	HasCursor        bool
}

// NewFrame returns a blank frame of the given size, every cell a space in
// the default style.
func NewFrame(w, h int) *Frame {
	cells := make([]Cell, w*h)
	for i := range cells {
		cells[i] = Cell{Ch: ' ', Style: tcell.StyleDefault}
	}
	return &Frame{Width: w, Height: h, Cells: cells}
}

// Set writes a single cell, silently clipping out-of-bounds writes the
// same way the teacher's Region.SetCell does.
func (f *Frame) Set(x, y int, style tcell.Style, ch rune) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	f.Cells[y*f.Width+x] = Cell{Ch: ch, Style: style}
}

// At returns the cell at (x, y).
func (f *Frame) At(x, y int) Cell {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return Cell{Ch: ' ', Style: tcell.StyleDefault}
	}
	return f.Cells[y*f.Width+x]
}

// WriteString writes text left-to-right starting at (x, y), one rune per
// column (no wide-rune accounting beyond what runewidth callers perform
// before calling in, mirroring the teacher's drawText).
func (f *Frame) WriteString(x, y int, style tcell.Style, text string) {
	for i, ch := range text {
		f.Set(x+i, y, style, ch)
	}
}
