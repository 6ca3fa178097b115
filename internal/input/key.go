// Package input implements the buffered key stream and mode dispatcher of
// spec.md §4.4: keys accumulate in an append-only buffer, a key-map
// matcher expands prefixes, and the current Mode consumes the result.
package input

import (
	"fmt"
	"strings"
)

// Mod is a bitset of modifier flags carried alongside a key code.
type Mod uint8

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
)

// Code identifies a single keystroke: either a printable rune or one of
// the named special keys below.
type Code rune

const (
	KeyNone Code = iota
	KeyBackspace
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyDelete
	KeyEsc
	// Any Code at or above firstRune is a literal rune r, stored as
	// firstRune + r.
	firstRune Code = 0x100
)

// Key is one recorded keystroke.
type Key struct {
	Code Code
	Mods Mod
}

// Rune returns the key's literal rune and ok=true if it is a printable
// key rather than a named special key.
func (k Key) Rune() (rune, bool) {
	if k.Code >= firstRune {
		return rune(k.Code - firstRune), true
	}
	return 0, false
}

// FromRune builds a printable Key for r carrying exactly the given mods;
// no shift state is inferred from the rune itself.
func FromRune(r rune, mods Mod) Key {
	return Key{Code: firstRune + Code(r), Mods: mods}
}

var namedKeys = map[string]Code{
	"backspace": KeyBackspace,
	"enter":     KeyEnter,
	"left":      KeyLeft,
	"right":     KeyRight,
	"up":        KeyUp,
	"down":      KeyDown,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
	"tab":       KeyTab,
	"delete":    KeyDelete,
	"esc":       KeyEsc,
}

// String renders k back to its textual spec form, the inverse of ParseKeys,
// used by macro rehydration formatting (spec.md §8's rehydration
// invariant: recording then replaying a register must reproduce the same
// effect, which requires a stable round-trip format).
func (k Key) String() string {
	var mod string
	if k.Mods&ModCtrl != 0 {
		mod += "c-"
	}
	if k.Mods&ModAlt != 0 {
		mod += "a-"
	}
	if k.Mods&ModShift != 0 {
		mod += "s-"
	}

	if r, ok := k.Rune(); ok {
		if mod == "" && r != ' ' {
			return string(r)
		}
		if r == ' ' {
			return fmt.Sprintf("<%sspace>", mod)
		}
		return fmt.Sprintf("<%s%c>", mod, r)
	}
	for name, code := range namedKeys {
		if code == k.Code {
			return fmt.Sprintf("<%s%s>", mod, name)
		}
	}
	return "<?>"
}

// ParseKeys parses a sequence of key specs like "abc<c-x><esc>" into Keys.
// It is atomic: on any parse failure it returns an error and the caller
// must not apply a partial result (KeyBuffer.Append relies on this to
// satisfy the roll-back invariant of spec.md §8).
func ParseKeys(spec string) ([]Key, error) {
	var keys []Key
	rs := []rune(spec)
	for i := 0; i < len(rs); {
		if rs[i] == '<' {
			end := indexRune(rs[i+1:], '>')
			if end < 0 {
				return nil, fmt.Errorf("unterminated key spec at %d", i)
			}
			inner := string(rs[i+1 : i+1+end])
			k, err := parseNamed(inner)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			i += end + 2
			continue
		}
		keys = append(keys, FromRune(rs[i], ModNone))
		i++
	}
	return keys, nil
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func parseNamed(inner string) (Key, error) {
	var mods Mod
	rest := inner
	for len(rest) >= 2 && rest[1] == '-' {
		switch rest[0] {
		case 'c', 'C':
			mods |= ModCtrl
		case 'a', 'A':
			mods |= ModAlt
		case 's', 'S':
			mods |= ModShift
		default:
			return Key{}, fmt.Errorf("invalid key modifier %q", rest[0])
		}
		rest = rest[2:]
	}

	lower := strings.ToLower(rest)
	if lower == "space" {
		return Key{Code: firstRune + ' ', Mods: mods}, nil
	}
	if code, ok := namedKeys[lower]; ok {
		return Key{Code: code, Mods: mods}, nil
	}
	if len([]rune(rest)) == 1 {
		r := []rune(rest)[0]
		return Key{Code: firstRune + Code(r), Mods: mods}, nil
	}
	return Key{}, fmt.Errorf("invalid key spec %q", inner)
}
