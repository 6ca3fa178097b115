package buffer

import "strings"

// TextBuffer is the minimal stand-in text store described in the package
// doc: a plain slice of lines. It satisfies the contract the core
// assumes of the (out-of-scope) storage engine: edits are addressed by
// (line, column), insertion returns the range actually inserted, and
// deletion consumes a range and returns it back (already normalized to
// valid buffer bounds).
type TextBuffer struct {
	Path      string
	lines     []string
	needsSave bool
	undo      []Edit
	redo      []Edit
}

// New creates an empty single-line buffer at path (path may be "" for an
// unnamed scratch buffer).
func New(path string) *TextBuffer {
	return &TextBuffer{Path: path, lines: []string{""}}
}

// NewFromContent splits content on '\n' to seed the buffer's lines.
func NewFromContent(path, content string) *TextBuffer {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	return &TextBuffer{Path: path, lines: lines}
}

// NeedsSave reports the buffer's dirty flag.
func (b *TextBuffer) NeedsSave() bool { return b.needsSave }

// SetSaved clears the dirty flag, e.g. after a successful write.
func (b *TextBuffer) SetSaved() { b.needsSave = false }

// LineCount returns the number of lines currently in the buffer.
func (b *TextBuffer) LineCount() int { return len(b.lines) }

// Line returns line i's text, or "" if out of range.
func (b *TextBuffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

// Content joins every line with '\n', the serialization used on save.
func (b *TextBuffer) Content() string {
	return strings.Join(b.lines, "\n")
}

// Saturate clamps a position to a valid location within the buffer:
// line is clamped to [0, LineCount-1] and column to [0, len(line-runes)].
func (b *TextBuffer) Saturate(p Position) Position {
	if len(b.lines) == 0 {
		return Position{}
	}
	line := p.Line
	if line < 0 {
		line = 0
	}
	if line >= len(b.lines) {
		line = len(b.lines) - 1
	}
	width := len([]rune(b.lines[line]))
	col := p.Column
	if col < 0 {
		col = 0
	}
	if col > width {
		col = width
	}
	return Position{Line: line, Column: col}
}

// Insert inserts text at pos (saturated first) and returns the range
// actually inserted.
func (b *TextBuffer) Insert(pos Position, text string) Range {
	rng := b.rawInsert(pos, text)
	b.needsSave = true
	b.undo = append(b.undo, Edit{Kind: EditDelete, Range: rng})
	b.redo = nil
	return rng
}

// Delete removes the text spanning rng (saturated first) and returns the
// concrete range that was removed.
func (b *TextBuffer) Delete(rng Range) Range {
	out, removed := b.rawDelete(rng)
	b.needsSave = true
	b.undo = append(b.undo, Edit{Kind: EditInsert, Range: out, Text: removed})
	b.redo = nil
	return out
}

// rawInsert performs the line-splice mutation Insert describes, without
// touching the undo/redo stacks, so undo/redo playback can reuse it.
func (b *TextBuffer) rawInsert(pos Position, text string) Range {
	pos = b.Saturate(pos)
	inserted := strings.Split(text, "\n")

	line := []rune(b.lines[pos.Line])
	before := string(line[:pos.Column])
	after := string(line[pos.Column:])

	if len(inserted) == 1 {
		b.lines[pos.Line] = before + inserted[0] + after
	} else {
		newLines := make([]string, 0, len(b.lines)+len(inserted)-1)
		newLines = append(newLines, b.lines[:pos.Line]...)
		newLines = append(newLines, before+inserted[0])
		newLines = append(newLines, inserted[1:len(inserted)-1]...)
		newLines = append(newLines, inserted[len(inserted)-1]+after)
		newLines = append(newLines, b.lines[pos.Line+1:]...)
		b.lines = newLines
	}

	endLine := pos.Line + len(inserted) - 1
	endCol := pos.Column
	if len(inserted) == 1 {
		endCol = pos.Column + len([]rune(inserted[0]))
	} else {
		endCol = len([]rune(inserted[len(inserted)-1]))
	}
	return Range{From: pos, To: Position{Line: endLine, Column: endCol}}
}

// rawDelete performs the line-splice mutation Delete describes, without
// touching the undo/redo stacks, returning both the normalized range
// removed and the text it contained (needed to undo a delete back into
// an insert).
func (b *TextBuffer) rawDelete(rng Range) (Range, string) {
	from := b.Saturate(rng.From)
	to := b.Saturate(rng.To)
	if to.Less(from) {
		from, to = to, from
	}

	removedText := b.sliceText(from, to)

	startLine := []rune(b.lines[from.Line])
	endLine := []rune(b.lines[to.Line])
	merged := string(startLine[:from.Column]) + string(endLine[to.Column:])

	newLines := make([]string, 0, len(b.lines)-(to.Line-from.Line))
	newLines = append(newLines, b.lines[:from.Line]...)
	newLines = append(newLines, merged)
	newLines = append(newLines, b.lines[to.Line+1:]...)
	b.lines = newLines

	return Range{From: from, To: to}, removedText
}

func (b *TextBuffer) sliceText(from, to Position) string {
	if from.Line == to.Line {
		line := []rune(b.lines[from.Line])
		return string(line[from.Column:to.Column])
	}
	var sb strings.Builder
	first := []rune(b.lines[from.Line])
	sb.WriteString(string(first[from.Column:]))
	for l := from.Line + 1; l < to.Line; l++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[l])
	}
	sb.WriteByte('\n')
	last := []rune(b.lines[to.Line])
	sb.WriteString(string(last[:to.Column]))
	return sb.String()
}

// PopUndo returns the next inverse edit to apply, in the same (kind,
// range) shape the view uses to rewrite its cursors (spec.md §4.5). The
// minimal stand-in here keeps a linear stack with one inverse edit per
// Insert/Delete; undone edits are not kept, so there is no redo.
func (b *TextBuffer) PopUndo() (Edit, bool) {
	if len(b.undo) == 0 {
		return Edit{}, false
	}
	e := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	return e, true
}

// ApplyUndoEdit performs the content mutation e describes against the
// buffer directly, bypassing Insert/Delete's own undo bookkeeping (e was
// already popped off the undo stack by the caller). It returns the
// concrete range ShiftPosition needs to rewrite cursors, same as Insert
// and Delete do.
func (b *TextBuffer) ApplyUndoEdit(e Edit) Range {
	b.needsSave = true
	switch e.Kind {
	case EditInsert:
		return b.rawInsert(e.Range.From, e.Text)
	case EditDelete:
		rng, _ := b.rawDelete(e.Range)
		return rng
	}
	return e.Range
}
