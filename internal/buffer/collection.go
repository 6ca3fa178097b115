package buffer

// Collection owns every open TextBuffer, keyed by a stable Handle.
// Handles are reused only after an explicit Close, per spec.md §3: a
// closed slot is nilled out, not removed, so earlier handles are never
// silently reassigned to unrelated content.
type Collection struct {
	buffers []*TextBuffer
}

// NewCollection returns an empty buffer collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Open creates a new empty (or content-seeded) buffer and returns its
// handle.
func (c *Collection) Open(path, content string) Handle {
	var b *TextBuffer
	if content == "" {
		b = New(path)
	} else {
		b = NewFromContent(path, content)
	}
	for i, slot := range c.buffers {
		if slot == nil {
			c.buffers[i] = b
			return Handle(i)
		}
	}
	c.buffers = append(c.buffers, b)
	return Handle(len(c.buffers) - 1)
}

// Get returns the buffer for h, or nil if h is invalid or closed.
func (c *Collection) Get(h Handle) *TextBuffer {
	if h < 0 || int(h) >= len(c.buffers) {
		return nil
	}
	return c.buffers[h]
}

// Close removes the buffer, freeing its slot for reuse. Per spec.md §3,
// callers that need to observe the buffer's final state should do so via
// a BufferClose event before this is called.
func (c *Collection) Close(h Handle) {
	if h < 0 || int(h) >= len(c.buffers) {
		return
	}
	c.buffers[h] = nil
}

// AnyNeedsSave reports whether any open buffer has unsaved changes.
func (c *Collection) AnyNeedsSave() bool {
	for _, b := range c.buffers {
		if b != nil && b.NeedsSave() {
			return true
		}
	}
	return false
}

// All iterates every live buffer handle in ascending order.
func (c *Collection) All(fn func(Handle, *TextBuffer)) {
	for i, b := range c.buffers {
		if b != nil {
			fn(Handle(i), b)
		}
	}
}
