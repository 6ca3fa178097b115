package render

import (
	"github.com/gdamore/tcell"
	"github.com/mattn/go-runewidth"

	"github.com/pepper-edit/pepper/internal/buffer"
)

var (
	cursorStyle    = tcell.StyleDefault.Reverse(true)
	selectionStyle = tcell.StyleDefault.Background(tcell.ColorNavy)
	statusStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue)
	errorStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
)

// Params bundles everything a single render pass needs for one client's
// viewport, per spec.md §4.7's render loop (scroll-to-keep-main-cursor-
// visible, one status line, one frame per client).
type Params struct {
	Width, Height int

	Buf  *buffer.TextBuffer
	View *buffer.View

	ScrollLine int
	// StatusMargin is reserved rows at the bottom for the status bar (and,
	// when present, the command line / picker); only the focused client
	// renders a status line, per spec.md §4.7.
	StatusMargin int

	StatusText  string
	StatusError bool

	CommandLineActive bool
	CommandLineText   string
	CommandLineCursor int
}

// ScrollToFit returns an updated scroll offset that keeps line within
// [scroll, scroll+viewHeight) with no extra margin, the minimal version
// of spec.md §4.7's "scroll to keep the main cursor visible" rule.
func ScrollToFit(scroll, line, viewHeight int) int {
	if viewHeight <= 0 {
		return scroll
	}
	if line < scroll {
		return line
	}
	if line >= scroll+viewHeight {
		return line - viewHeight + 1
	}
	return scroll
}

// Render computes a complete Frame for one client, a pure function of the
// parameters given (no terminal handle is touched).
func Render(p Params) *Frame {
	f := NewFrame(p.Width, p.Height)
	textHeight := p.Height - p.StatusMargin
	if textHeight < 0 {
		textHeight = 0
	}

	if p.Buf != nil {
		drawBuffer(f, p, textHeight)
	}

	row := textHeight
	if p.StatusMargin > 0 && row < p.Height {
		style := statusStyle
		if p.StatusError {
			style = errorStyle
		}
		f.WriteString(0, row, style, p.StatusText)
		row++
	}
	if p.CommandLineActive && row < p.Height {
		f.WriteString(0, row, tcell.StyleDefault, ":")
		f.WriteString(1, row, tcell.StyleDefault, p.CommandLineText)
		f.CursorX = 1 + p.CommandLineCursor
		f.CursorY = row
		f.HasCursor = true
	}

	return f
}

func drawBuffer(f *Frame, p Params, textHeight int) {
	var cursors []buffer.Cursor
	if p.View != nil {
		cursors = p.View.Cursors()
	}

	for row := 0; row < textHeight; row++ {
		line := p.ScrollLine + row
		if line >= p.Buf.LineCount() {
			break
		}
		text := p.Buf.Line(line)

		x := 0
		for _, ch := range text {
			style := tcell.StyleDefault
			if inSelection(cursors, line, x) {
				style = selectionStyle
			}
			f.Set(x, row, style, ch)
			x += max(runewidth.RuneWidth(ch), 1)
		}
	}

	if !p.CommandLineActive && p.View != nil && len(cursors) > 0 {
		main := cursors[0]
		y := main.Position.Line - p.ScrollLine
		if y >= 0 && y < textHeight {
			f.CursorX = columnToCell(p.Buf.Line(main.Position.Line), main.Position.Column)
			f.CursorY = y
			f.HasCursor = true
		}
	}
}

func columnToCell(line string, column int) int {
	x := 0
	i := 0
	for _, ch := range line {
		if i == column {
			return x
		}
		x += max(runewidth.RuneWidth(ch), 1)
		i++
	}
	return x
}

func inSelection(cursors []buffer.Cursor, line, col int) bool {
	for _, c := range cursors {
		sel := selectionOf(c)
		pos := buffer.Position{Line: line, Column: col}
		if (sel.From.Less(pos) || sel.From == pos) && pos.Less(sel.To) {
			return true
		}
	}
	return false
}

func selectionOf(c buffer.Cursor) buffer.Range {
	if c.Anchor.Less(c.Position) {
		return buffer.Range{From: c.Anchor, To: c.Position}
	}
	return buffer.Range{From: c.Position, To: c.Anchor}
}
