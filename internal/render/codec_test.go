package render

import (
	"testing"

	"github.com/gdamore/tcell"
)

func TestFrame_EncodeDecodeRoundTrips(t *testing.T) {
	f := NewFrame(3, 2)
	f.Set(0, 0, tcell.StyleDefault.Bold(true), 'h')
	f.Set(1, 0, tcell.StyleDefault.Foreground(tcell.ColorRed), 'i')
	f.CursorX, f.CursorY, f.HasCursor = 1, 0, true

	got := DecodeFrame(f.Encode())

	if got.Width != f.Width || got.Height != f.Height {
		t.Fatalf("got size (%d,%d), want (%d,%d)", got.Width, got.Height, f.Width, f.Height)
	}
	if got.CursorX != f.CursorX || got.CursorY != f.CursorY || got.HasCursor != f.HasCursor {
		t.Fatalf("got cursor (%d,%d,%v), want (%d,%d,%v)", got.CursorX, got.CursorY, got.HasCursor, f.CursorX, f.CursorY, f.HasCursor)
	}
	for i := range f.Cells {
		if got.Cells[i].Ch != f.Cells[i].Ch {
			t.Fatalf("cell %d: got rune %q, want %q", i, got.Cells[i].Ch, f.Cells[i].Ch)
		}
		if got.Cells[i].Style != f.Cells[i].Style {
			t.Fatalf("cell %d: got style %+v, want %+v", i, got.Cells[i].Style, f.Cells[i].Style)
		}
	}
}

func TestFrame_DecodeTooShortReturnsEmptyFrame(t *testing.T) {
	got := DecodeFrame([]byte{1, 2, 3})
	if got.Width != 0 || got.Height != 0 || len(got.Cells) != 0 {
		t.Fatalf("got %+v, want a blank 0x0 frame for undersized input", got)
	}
}

func TestFrame_DecodeTruncatedCellsStopsEarlyWithoutPanicking(t *testing.T) {
	f := NewFrame(4, 4)
	data := f.Encode()
	// Truncate mid-way through the cell payload; DecodeFrame must not
	// panic or overrun the slice, just stop appending cells.
	got := DecodeFrame(data[:len(data)-20])
	if got.Width != 4 || got.Height != 4 {
		t.Fatalf("got size (%d,%d), want (4,4) even with truncated cell data", got.Width, got.Height)
	}
	if len(got.Cells) >= len(f.Cells) {
		t.Fatalf("got %d cells, want fewer than %d given truncated input", len(got.Cells), len(f.Cells))
	}
}
