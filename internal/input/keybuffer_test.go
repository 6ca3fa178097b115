package input

import "testing"

func TestKeyBuffer_AppendRollsBackOnParseFailure(t *testing.T) {
	b := NewKeyBuffer()
	if err := b.Append("ab"); err != nil {
		t.Fatalf("append: %v", err)
	}
	before := b.Len()

	if err := b.Append("c<unterminated"); err == nil {
		t.Fatal("expected a parse error")
	}
	if b.Len() != before {
		t.Fatalf("got len %d after failed append, want unchanged %d", b.Len(), before)
	}

	if err := b.Append("c<nonsense-name>"); err == nil {
		t.Fatal("expected a parse error for an invalid key name")
	}
	if b.Len() != before {
		t.Fatalf("got len %d after second failed append, want unchanged %d", b.Len(), before)
	}
}

func TestKeyBuffer_AppendSucceedsAfterFailure(t *testing.T) {
	b := NewKeyBuffer()
	_ = b.Append("a")
	if err := b.Append("<bad"); err == nil {
		t.Fatal("expected failure")
	}
	if err := b.Append("bc"); err != nil {
		t.Fatalf("append after failure: %v", err)
	}
	if b.Len() != 3 {
		t.Fatalf("got len %d, want 3", b.Len())
	}
}

func TestKeyBuffer_Truncate(t *testing.T) {
	b := NewKeyBuffer()
	_ = b.Append("abcd")
	b.Truncate(2)
	if b.Len() != 2 {
		t.Fatalf("got len %d, want 2", b.Len())
	}
	r, ok := b.Keys()[1].Rune()
	if !ok || r != 'b' {
		t.Fatalf("got (%q,%v), want ('b',true)", r, ok)
	}
}

func TestKeyBuffer_TruncateNoopWhenBeyondLength(t *testing.T) {
	b := NewKeyBuffer()
	_ = b.Append("ab")
	b.Truncate(10)
	if b.Len() != 2 {
		t.Fatalf("got len %d, want unchanged 2", b.Len())
	}
}

func TestKeyBuffer_Slice(t *testing.T) {
	b := NewKeyBuffer()
	_ = b.Append("abcd")
	tail := b.Slice(2)
	if len(tail) != 2 {
		t.Fatalf("got len %d, want 2", len(tail))
	}
	r, ok := tail[0].Rune()
	if !ok || r != 'c' {
		t.Fatalf("got (%q,%v), want ('c',true)", r, ok)
	}
}
