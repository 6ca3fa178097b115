package render

import (
	"encoding/binary"

	"github.com/gdamore/tcell"
)

// Encode serializes f into the flat byte payload carried by a
// session.ServerEvent's Display frame (spec.md §6: "Variable-length
// payloads are length-prefixed ... where required by the variant").
// Each cell is encoded as its rune plus its style's three decomposed
// components (foreground, background, attributes), so a client
// process with no access to the server's in-memory Cell values can
// reconstruct an identical tcell.Style.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, 16+len(f.Cells)*14)
	var tmp [4]byte

	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}

	putU32(uint32(f.Width))
	putU32(uint32(f.Height))
	putU32(uint32(f.CursorX))
	putU32(uint32(f.CursorY))
	if f.HasCursor {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	for _, c := range f.Cells {
		fg, bg, attrs := c.Style.Decompose()
		putU32(uint32(c.Ch))
		putU32(uint32(fg))
		putU32(uint32(bg))
		var a [2]byte
		binary.LittleEndian.PutUint16(a[:], uint16(attrs))
		buf = append(buf, a[:]...)
	}
	return buf
}

// DecodeFrame is the inverse of Frame.Encode.
func DecodeFrame(data []byte) *Frame {
	if len(data) < 17 {
		return NewFrame(0, 0)
	}
	r := &reader{b: data}
	f := &Frame{
		Width:   int(r.u32()),
		Height:  int(r.u32()),
		CursorX: int(r.u32()),
		CursorY: int(r.u32()),
	}
	f.HasCursor = r.u8() != 0

	n := f.Width * f.Height
	f.Cells = make([]Cell, 0, n)
	for i := 0; i < n && len(r.b) >= 14; i++ {
		ch := rune(r.u32())
		fg := tcell.Color(r.u32())
		bg := tcell.Color(r.u32())
		attrs := tcell.AttrMask(r.u16())
		style := tcell.StyleDefault.Foreground(fg).Background(bg)
		style = applyAttrs(style, attrs)
		f.Cells = append(f.Cells, Cell{Ch: ch, Style: style})
	}
	return f
}

func applyAttrs(s tcell.Style, attrs tcell.AttrMask) tcell.Style {
	return s.
		Bold(attrs&tcell.AttrBold != 0).
		Underline(attrs&tcell.AttrUnderline != 0).
		Reverse(attrs&tcell.AttrReverse != 0).
		Blink(attrs&tcell.AttrBlink != 0).
		Dim(attrs&tcell.AttrDim != 0)
}

type reader struct{ b []byte }

func (r *reader) u32() uint32 {
	if len(r.b) < 4 {
		r.b = nil
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[:4])
	r.b = r.b[4:]
	return v
}

func (r *reader) u16() uint16 {
	if len(r.b) < 2 {
		r.b = nil
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[:2])
	r.b = r.b[2:]
	return v
}

func (r *reader) u8() byte {
	if len(r.b) < 1 {
		return 0
	}
	v := r.b[0]
	r.b = r.b[1:]
	return v
}
