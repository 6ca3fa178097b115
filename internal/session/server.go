package session

import (
	"io"
	"net"
	"sync"

	"github.com/pepper-edit/pepper/internal/client"
)

// Incoming pairs a decoded ClientEvent with the connection handle it
// arrived on, the unit the editor's single owning goroutine drains off
// Server.Incoming().
type Incoming struct {
	Handle client.Handle
	Event  ClientEvent
	// Closed is set when the connection ended instead of carrying an
	// event; Handle is still valid so the caller can run OnLeft.
	Closed bool
}

// Server accepts client connections on a UNIX domain socket listener and
// multiplexes their framed ClientEvents onto a single channel, so the
// editor's cooperative main loop never touches a connection directly
// (spec.md §5: background threads hand buffers to the main thread via a
// request queue).
type Server struct {
	listener net.Listener

	mu    sync.Mutex
	conns map[client.Handle]net.Conn

	incoming chan Incoming
}

// NewServer wraps an already-listening UNIX socket listener.
func NewServer(l net.Listener) *Server {
	return &Server{
		listener: l,
		conns:    make(map[client.Handle]net.Conn),
		incoming: make(chan Incoming, 64),
	}
}

// Incoming returns the channel every accepted connection's events (and
// close notifications) are delivered on.
func (s *Server) Incoming() <-chan Incoming { return s.incoming }

// Serve accepts connections until the listener is closed. assignHandle is
// called synchronously per new connection (expected to call
// client.Manager.OnJoined) and must return quickly; the connection's
// read loop then runs on its own goroutine.
func (s *Server) Serve(assignHandle func(net.Conn) client.Handle) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		h := assignHandle(conn)

		s.mu.Lock()
		s.conns[h] = conn
		s.mu.Unlock()

		go s.readLoop(h, conn)
	}
}

func (s *Server) readLoop(h client.Handle, conn net.Conn) {
	for {
		ev, err := ReadClientEvent(conn)
		if err != nil {
			s.mu.Lock()
			delete(s.conns, h)
			s.mu.Unlock()
			s.incoming <- Incoming{Handle: h, Closed: true}
			return
		}
		s.incoming <- Incoming{Handle: h, Event: ev}
	}
}

// Send writes a ServerEvent to the named client's connection, if it is
// still live.
func (s *Server) Send(h client.Handle, ev ServerEvent) error {
	s.mu.Lock()
	conn, ok := s.conns[h]
	s.mu.Unlock()
	if !ok {
		return io.ErrClosedPipe
	}
	return WriteServerEvent(conn, ev)
}

// Close closes the listener and every live connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
	return s.listener.Close()
}
