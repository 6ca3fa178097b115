package session

import "net"

// ClientConn is the thin-client half of the transport: a connected
// socket plus a channel of decoded ServerEvents read off it in the
// background, per spec.md §4.7.
type ClientConn struct {
	conn    net.Conn
	events  chan ServerEvent
	closed  chan struct{}
}

// NewClientConn starts the background read loop over an already-dialed
// connection.
func NewClientConn(conn net.Conn) *ClientConn {
	c := &ClientConn{conn: conn, events: make(chan ServerEvent, 64), closed: make(chan struct{})}
	go c.readLoop()
	return c
}

func (c *ClientConn) readLoop() {
	defer close(c.closed)
	for {
		ev, err := ReadServerEvent(c.conn)
		if err != nil {
			return
		}
		c.events <- ev
	}
}

// Events returns the channel of decoded ServerEvents.
func (c *ClientConn) Events() <-chan ServerEvent { return c.events }

// Closed returns a channel that closes when the connection ends.
func (c *ClientConn) Closed() <-chan struct{} { return c.closed }

// Send writes a ClientEvent to the server.
func (c *ClientConn) Send(ev ClientEvent) error {
	return WriteClientEvent(c.conn, ev)
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}
