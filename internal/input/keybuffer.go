package input

// KeyBuffer is the append-only sequence of recorded keys described in
// spec.md §3/§4.4. Its "consumed" cursor is advanced by the Dispatcher;
// Truncate resets the buffer back to a remembered length.
type KeyBuffer struct {
	keys []Key
}

// NewKeyBuffer returns an empty key buffer.
func NewKeyBuffer() *KeyBuffer { return &KeyBuffer{} }

// Len returns the number of recorded keys.
func (b *KeyBuffer) Len() int { return len(b.keys) }

// Keys returns the full recorded slice; callers must not retain it across
// a mutating call.
func (b *KeyBuffer) Keys() []Key { return b.keys }

// Slice returns keys[from:].
func (b *KeyBuffer) Slice(from int) []Key { return b.keys[from:] }

// Append parses spec and appends the resulting keys atomically: on parse
// failure the buffer's length is left exactly as it was (spec.md §8's
// key-buffer-rollback invariant).
func (b *KeyBuffer) Append(spec string) error {
	before := len(b.keys)
	keys, err := ParseKeys(spec)
	if err != nil {
		b.keys = b.keys[:before]
		return err
	}
	b.keys = append(b.keys, keys...)
	return nil
}

// AppendKeys appends already-parsed keys (e.g. a macro replay or direct
// platform input) without going through spec parsing.
func (b *KeyBuffer) AppendKeys(keys ...Key) {
	b.keys = append(b.keys, keys...)
}

// Truncate drops every key from index i onward.
func (b *KeyBuffer) Truncate(i int) {
	if i < len(b.keys) {
		b.keys = b.keys[:i]
	}
}
