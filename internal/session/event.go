// Package session implements the server/client discovery procedure and
// the tagged, length-prefixed wire framing of spec.md §4.7/§6, over a
// UNIX domain socket (the only transport the spec names: "session
// transport is local only").
package session

import "github.com/pepper-edit/pepper/internal/client"

// ClientEventTag identifies a ClientEvent variant on the wire.
type ClientEventTag byte

const (
	TagKey ClientEventTag = iota
	TagResize
	TagCommands
	TagStdinInput
)

// ClientEvent is a message sent from a client to the server.
type ClientEvent struct {
	Tag ClientEventTag

	Target client.Handle // for Key and Commands

	KeySpec string // Key: a single parseable key spec, e.g. "<c-x>"

	Width, Height int // Resize

	Text string // Commands

	Bytes []byte // StdinInput
}

// ServerEventTag identifies a ServerEvent variant on the wire.
type ServerEventTag byte

const (
	TagDisplay ServerEventTag = iota
	TagStdoutOutput
	TagCommandOutput
	TagRequest
)

// ServerEvent is a message sent from the server to a client.
type ServerEvent struct {
	Tag ServerEventTag

	Frame []byte // Display

	Stdout []byte // StdoutOutput

	CommandText string // CommandOutput or Request
}
