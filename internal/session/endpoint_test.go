package session

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestConnect_FirstCallerBecomesServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")

	role, conn, l, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer l.Close()
	if role != RoleServer {
		t.Fatalf("got role %v, want RoleServer", role)
	}
	if conn != nil {
		t.Fatal("expected no connection to be returned for the server role")
	}
}

func TestConnect_SecondCallerAttachesAsClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")

	_, _, l, err := Connect(path)
	if err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	defer l.Close()

	accepted := make(chan struct{})
	go func() {
		c, err := l.Accept()
		if err == nil {
			defer c.Close()
		}
		close(accepted)
	}()

	role, conn, l2, err := Connect(path)
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if role != RoleClient {
		t.Fatalf("got role %v, want RoleClient", role)
	}
	if conn == nil {
		t.Fatal("expected a connection to be returned for the client role")
	}
	if l2 != nil {
		t.Fatal("expected no listener to be returned for the client role")
	}
	conn.Close()
	<-accepted
}

func TestConnect_RecoversFromStaleSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")

	// Simulate a stale socket file left behind by a server that crashed
	// without cleaning up: nothing is listening on it, so dialing fails,
	// and listening on it directly also fails (address already in use)
	// until the discovery procedure deletes it and retries.
	_, _, l, err := Connect(path)
	if err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	ul, ok := l.(*net.UnixListener)
	if !ok {
		t.Fatalf("got listener of type %T, want *net.UnixListener", l)
	}
	ul.SetUnlinkOnClose(false)
	ul.Close() // closes the listener but leaves the socket file on disk

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the stale socket file to remain on disk: %v", err)
	}

	role, conn, l2, err := Connect(path)
	if err != nil {
		t.Fatalf("recovery Connect: %v", err)
	}
	if role != RoleServer {
		t.Fatalf("got role %v, want RoleServer after stale-socket recovery", role)
	}
	if conn != nil {
		t.Fatal("expected no connection for the recovered server role")
	}
	l2.Close()
}

func TestRemoveEndpoint_DeletesSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")
	_, _, l, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	l.Close()

	RemoveEndpoint(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected socket file to be removed, stat err: %v", err)
	}
}

func TestSocketPath_NamespacesUnderTempDir(t *testing.T) {
	got := SocketPath("myproject")
	want := os.TempDir() + "/pepper-myproject.sock"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
