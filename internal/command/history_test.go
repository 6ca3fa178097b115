package command

import "testing"

func TestHistory_BlankLinesIgnored(t *testing.T) {
	h := NewHistory()
	h.Add("")
	h.Add("   ")
	if h.Len() != 0 {
		t.Fatalf("got len %d, want 0", h.Len())
	}
}

func TestHistory_TrimsWhitespace(t *testing.T) {
	h := NewHistory()
	h.Add("  open a.txt  ")
	got, ok := h.Last()
	if !ok || got != "open a.txt" {
		t.Fatalf("got (%q,%v), want (\"open a.txt\",true)", got, ok)
	}
}

func TestHistory_DedupsImmediateRepeat(t *testing.T) {
	h := NewHistory()
	h.Add("print x")
	h.Add("print x")
	h.Add("print x")
	if h.Len() != 1 {
		t.Fatalf("got len %d, want 1", h.Len())
	}
}

func TestHistory_NonAdjacentRepeatIsKept(t *testing.T) {
	h := NewHistory()
	h.Add("print x")
	h.Add("print y")
	h.Add("print x")
	if h.Len() != 3 {
		t.Fatalf("got len %d, want 3", h.Len())
	}
}

func TestHistory_CapacityEvictsOldest(t *testing.T) {
	h := NewHistory()
	for i := 0; i < HistoryCapacity+5; i++ {
		h.Add(string(rune('a' + i)))
	}
	if h.Len() != HistoryCapacity {
		t.Fatalf("got len %d, want %d", h.Len(), HistoryCapacity)
	}
	oldest, ok := h.At(0)
	if !ok {
		t.Fatal("expected an entry at index 0")
	}
	wantOldest := string(rune('a' + 5))
	if oldest != wantOldest {
		t.Fatalf("got oldest %q, want %q", oldest, wantOldest)
	}
	last, ok := h.Last()
	if !ok || last != string(rune('a'+HistoryCapacity+4)) {
		t.Fatalf("got last %q, want %q", last, string(rune('a'+HistoryCapacity+4)))
	}
}

func TestHistory_AtOutOfRange(t *testing.T) {
	h := NewHistory()
	h.Add("a")
	if _, ok := h.At(-1); ok {
		t.Fatal("expected At(-1) to fail")
	}
	if _, ok := h.At(5); ok {
		t.Fatal("expected At(5) to fail")
	}
}
