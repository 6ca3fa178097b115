package command

import "testing"

func newTestArgs(source string) *Args {
	name, _, bang, rest, err := parseNameAndBang(source)
	if err != nil {
		panic(err)
	}
	_ = name
	return newArgs(source, bang, rest)
}

func TestArgs_PositionalsSkipFlags(t *testing.T) {
	src := `cmd a -switch -option=val b`
	a := newTestArgs(src)

	v1, err := a.Next()
	if err != nil || v1.Token.String(src) != "a" {
		t.Fatalf("first positional: got %q err=%v", v1.Token.String(src), err)
	}
	v2, err := a.Next()
	if err != nil || v2.Token.String(src) != "b" {
		t.Fatalf("second positional: got %q err=%v", v2.Token.String(src), err)
	}
	if err := a.AssertEmpty(); err != nil {
		t.Fatalf("AssertEmpty: %v", err)
	}
}

func TestArgs_GetFlagsDoesNotDisturbPositionals(t *testing.T) {
	src := `cmd a -name value b`
	a := newTestArgs(src)

	flags := []Flag{{Name: "name"}}
	if err := a.GetFlags(flags); err != nil {
		t.Fatalf("GetFlags: %v", err)
	}
	if flags[0].Value == nil || flags[0].Value.Token.String(src) != "value" {
		t.Fatalf("flag value: got %v", flags[0].Value)
	}

	v1, err := a.Next()
	if err != nil || v1.Token.String(src) != "a" {
		t.Fatalf("first positional after GetFlags: got %q err=%v", v1.Token.String(src), err)
	}
	v2, err := a.Next()
	if err != nil || v2.Token.String(src) != "b" {
		t.Fatalf("second positional after GetFlags: got %q err=%v", v2.Token.String(src), err)
	}
}

func TestArgs_UnknownFlagErrors(t *testing.T) {
	src := `cmd -nope`
	a := newTestArgs(src)
	err := a.GetFlags([]Flag{{Name: "known"}})
	te, ok := err.(*TokenError)
	if !ok || te.Kind != ErrUnknownFlag {
		t.Fatalf("got err=%v, want ErrUnknownFlag", err)
	}
}

func TestArgs_NextTooFewArguments(t *testing.T) {
	src := `cmd`
	a := newTestArgs(src)
	_, err := a.Next()
	ae, ok := err.(*ArityError)
	if !ok || ae.Kind != ErrTooFewArguments {
		t.Fatalf("got err=%v, want ErrTooFewArguments", err)
	}
}

func TestArgs_AssertEmptyTooManyArguments(t *testing.T) {
	src := `cmd a b`
	a := newTestArgs(src)
	if _, err := a.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	err := a.AssertEmpty()
	ae, ok := err.(*ArityError)
	if !ok || ae.Kind != ErrTooManyArguments {
		t.Fatalf("got err=%v, want ErrTooManyArguments", err)
	}
}

func TestArgs_FlagWithoutValueBeforeAnotherFlag(t *testing.T) {
	src := `cmd -a -b`
	a := newTestArgs(src)
	flags := []Flag{{Name: "a"}, {Name: "b"}}
	if err := a.GetFlags(flags); err != nil {
		t.Fatalf("GetFlags: %v", err)
	}
	if flags[0].Value == nil {
		t.Fatal("expected -a to be present with an empty value")
	}
	if flags[1].Value == nil {
		t.Fatal("expected -b to be present")
	}
}
