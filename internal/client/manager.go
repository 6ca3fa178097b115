package client

// Addressing selects how Manager.TargetOf resolves the recipient of an
// operation, per spec.md §4.6.
type Addressing int

const (
	// Sender targets the client that sent the triggering event.
	Sender Addressing = iota
	// Focused targets the current focus slot; if none is set, the event
	// is dropped silently.
	Focused
)

// Manager maintains a dense, freelist-backed array of clients plus a
// separate focus slot.
type Manager struct {
	clients []*Client // nil slots are free
	free    []Handle

	focus    Handle
	hasFocus bool
}

// NewManager returns an empty client manager with no focused client.
func NewManager() *Manager {
	return &Manager{}
}

// OnJoined allocates a default client and returns its handle, reusing a
// freed slot when one is available.
func (m *Manager) OnJoined() Handle {
	if n := len(m.free); n > 0 {
		h := m.free[n-1]
		m.free = m.free[:n-1]
		m.clients[h] = &Client{handle: h}
		return h
	}
	h := Handle(len(m.clients))
	m.clients = append(m.clients, &Client{handle: h})
	return h
}

// OnLeft clears the client's slot and purges any targeting state
// pointing at it (the focus slot, if it was the focused client).
func (m *Manager) OnLeft(h Handle) {
	if h < 0 || int(h) >= len(m.clients) || m.clients[h] == nil {
		return
	}
	m.clients[h] = nil
	m.free = append(m.free, h)
	if m.hasFocus && m.focus == h {
		m.hasFocus = false
	}
}

// Get returns the client for h, or nil if h is invalid or has left.
func (m *Manager) Get(h Handle) *Client {
	if h < 0 || int(h) >= len(m.clients) {
		return nil
	}
	return m.clients[h]
}

// Focus sets the focused client, returning true if focus actually
// changed. Callers must then clear pending input state (the key buffer
// and any active macro recording, per spec.md §4.4's cancellation rule).
func (m *Manager) Focus(h Handle) bool {
	if m.hasFocus && m.focus == h {
		return false
	}
	m.focus = h
	m.hasFocus = true
	return true
}

// FocusedHandle returns the current focus slot, if any.
func (m *Manager) FocusedHandle() (Handle, bool) {
	return m.focus, m.hasFocus
}

// TargetOf resolves the client that should receive an operation
// addressed from sender using mode. Focused addressing with no current
// focus returns ok=false, meaning the event must be dropped silently.
func (m *Manager) TargetOf(sender Handle, mode Addressing) (Handle, bool) {
	switch mode {
	case Sender:
		return sender, true
	case Focused:
		return m.focus, m.hasFocus
	default:
		return 0, false
	}
}

// All iterates every live client.
func (m *Manager) All(fn func(Handle, *Client)) {
	for i, c := range m.clients {
		if c != nil {
			fn(Handle(i), c)
		}
	}
}
