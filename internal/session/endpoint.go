package session

import (
	"errors"
	"net"
	"os"
)

// ErrCouldNotConnectOrStart is returned when every step of the discovery
// procedure in spec.md §4.7 fails.
var ErrCouldNotConnectOrStart = errors.New("session: could not connect to or start server")

// SocketPath returns the UNIX domain socket path for a session name,
// namespaced under the OS temp directory the way a per-working-directory
// session name is meant to be disambiguated.
func SocketPath(name string) string {
	return os.TempDir() + "/pepper-" + name + ".sock"
}

// Role reports whether Connect ended up attaching as a client to an
// existing server, or became the server itself.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Connect implements the discovery procedure of spec.md §4.7:
//  1. try to connect to the endpoint; success means RoleClient.
//  2. otherwise try to create (listen on) the endpoint; success means
//     RoleServer.
//  3. otherwise delete a stale endpoint file and retry the listen once;
//     failure at this point is ErrCouldNotConnectOrStart.
func Connect(path string) (Role, net.Conn, net.Listener, error) {
	if conn, err := net.Dial("unix", path); err == nil {
		return RoleClient, conn, nil, nil
	}

	if l, err := net.Listen("unix", path); err == nil {
		return RoleServer, nil, l, nil
	}

	os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return 0, nil, nil, ErrCouldNotConnectOrStart
	}
	return RoleServer, nil, l, nil
}

// RemoveEndpoint deletes the session's socket file, called on clean
// server shutdown per spec.md §4.7.
func RemoveEndpoint(path string) {
	os.Remove(path)
}
