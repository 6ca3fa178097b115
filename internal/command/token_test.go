package command

import "testing"

// Token offsets map back: for every emitted token (kind, [from,to)) on
// input s, the range lies within s, so s[from:to] is always a valid slice
// of the original input.
func TestTokenIter_OffsetsMapBack(t *testing.T) {
	inputs := []string{
		`c!  'a a'  "b"  c`,
		`c -switch -option=value aaa`,
		`cmd {\n still cmd\n}`,
		``,
		`   `,
		`-flag`,
		`=`,
	}
	for _, s := range inputs {
		it := NewTokenIter(s)
		for {
			_, tok, ok := it.Next()
			if !ok {
				break
			}
			if tok.From < 0 || tok.To > len(s) || tok.From > tok.To {
				t.Fatalf("input %q: token range [%d,%d) out of bounds", s, tok.From, tok.To)
			}
			_ = tok.String(s) // must not panic; slice is always valid
		}
	}
}

func TestTokenIter_Quoting(t *testing.T) {
	it := NewTokenIter(`'a a' "b" c`)

	kind, tok, ok := it.Next()
	if !ok || kind != Text || tok.String(`'a a' "b" c`) != "a a" {
		t.Fatalf("single-quoted token: got kind=%v text=%q", kind, tok.String(`'a a' "b" c`))
	}
	kind, tok, ok = it.Next()
	if !ok || kind != Text || tok.String(`'a a' "b" c`) != "b" {
		t.Fatalf("double-quoted token: got kind=%v text=%q", kind, tok.String(`'a a' "b" c`))
	}
	kind, tok, ok = it.Next()
	if !ok || kind != Text || tok.String(`'a a' "b" c`) != "c" {
		t.Fatalf("bare token: got kind=%v text=%q", kind, tok.String(`'a a' "b" c`))
	}
	if _, _, ok := it.Next(); ok {
		t.Fatal("expected end of input")
	}
}

func TestTokenIter_UnterminatedQuote(t *testing.T) {
	src := `"unterminated`
	kind, tok, ok := NewTokenIter(src).Next()
	if !ok || kind != Unterminated {
		t.Fatalf("expected Unterminated, got kind=%v ok=%v", kind, ok)
	}
	if tok.To != len(src) {
		t.Fatalf("expected unterminated token to cover remainder, got [%d,%d)", tok.From, tok.To)
	}
}

func TestTokenIter_BraceGroup(t *testing.T) {
	src := `{ still cmd\nmore }`
	kind, tok, ok := NewTokenIter(src).Next()
	if !ok || kind != Text {
		t.Fatalf("expected Text from brace group, got kind=%v ok=%v", kind, ok)
	}
	want := ` still cmd\nmore `
	if got := tok.String(src); got != want {
		t.Fatalf("brace interior: got %q want %q", got, want)
	}
}

func TestTokenIter_Flags(t *testing.T) {
	src := `-switch -option=value aaa`
	var kinds []Kind
	var texts []string
	it := NewTokenIter(src)
	for {
		kind, tok, ok := it.Next()
		if !ok {
			break
		}
		kinds = append(kinds, kind)
		texts = append(texts, tok.String(src))
	}
	wantKinds := []Kind{Flag, Flag, Equals, Text, Text}
	wantTexts := []string{"-switch", "-option", "=", "value", "aaa"}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(wantKinds), texts)
	}
	for i := range kinds {
		if kinds[i] != wantKinds[i] || texts[i] != wantTexts[i] {
			t.Errorf("token %d: got (%v,%q) want (%v,%q)", i, kinds[i], texts[i], wantKinds[i], wantTexts[i])
		}
	}
}

func TestTokenIter_StandaloneEquals(t *testing.T) {
	kind, tok, ok := NewTokenIter(`=`).Next()
	if !ok || kind != Equals || tok.String(`=`) != "=" {
		t.Fatalf("got kind=%v text=%q", kind, tok.String(`=`))
	}
}
