// Package statusbar implements the editor's message sink for non-fatal
// errors and informational output, per spec.md §7.
package statusbar

import "fmt"

// MessageKind classifies a status bar message for rendering (e.g. error
// messages might be highlighted).
type MessageKind int

const (
	Info MessageKind = iota
	Error
)

// Message is one entry written to the status bar.
type Message struct {
	Kind MessageKind
	Text string
}

// StatusBar holds the single most recent message shown to a UI client.
// Unlike history (internal/command), it is not a ring: each write
// replaces the previous message outright, matching the "bottom of the
// screen" single-line status area described throughout spec.md §4.7.
type StatusBar struct {
	last Message
}

// New returns an empty status bar.
func New() *StatusBar {
	return &StatusBar{}
}

// Write starts a new message of the given kind; the returned Writer
// accumulates the message text via Str/Fmt.
func (s *StatusBar) Write(kind MessageKind) *Writer {
	s.last = Message{Kind: kind}
	return &Writer{bar: s}
}

// Current returns the most recently written message.
func (s *StatusBar) Current() Message {
	return s.last
}

// Writer accumulates text into the status bar message started by
// StatusBar.Write.
type Writer struct {
	bar *StatusBar
}

// Str appends plain text to the in-progress message.
func (w *Writer) Str(s string) {
	w.bar.last.Text += s
}

// Fmt appends formatted text to the in-progress message.
func (w *Writer) Fmt(format string, args ...interface{}) {
	w.bar.last.Text += fmt.Sprintf(format, args...)
}
