// Package client implements per-attached-client state and the
// focused/sender targeting rules of spec.md §4.6.
package client

import "github.com/pepper-edit/pepper/internal/buffer"

// Handle stably identifies a connected client.
type Handle int

// Viewport is the client's terminal size in cells.
type Viewport struct {
	Width, Height int
}

// Client holds everything the server tracks for one attached client.
type Client struct {
	handle Handle

	viewHandle    buffer.ViewHandle
	hasView       bool
	viewport      Viewport
	scrollLine    int
	stdinSink     buffer.Handle
	hasStdinSink  bool
	hasUI         bool
	NeedsRedraw   bool
}

// Handle returns the client's own handle.
func (c *Client) Handle() Handle { return c.handle }

// BufferViewHandle returns the client's current view, if any.
func (c *Client) BufferViewHandle() (buffer.ViewHandle, bool) {
	return c.viewHandle, c.hasView
}

// SetBufferViewHandle assigns (or clears, with ok=false) the client's
// current view.
func (c *Client) SetBufferViewHandle(h buffer.ViewHandle, ok bool) {
	c.viewHandle, c.hasView = h, ok
}

// Viewport returns the client's terminal size.
func (c *Client) Viewport() Viewport { return c.viewport }

// SetViewport updates the client's terminal size, e.g. on a Resize
// event.
func (c *Client) SetViewport(v Viewport) { c.viewport = v }

// ScrollLine returns the view's current vertical scroll offset.
func (c *Client) ScrollLine() int { return c.scrollLine }

// SetScrollLine updates the scroll offset.
func (c *Client) SetScrollLine(n int) { c.scrollLine = n }

// StdinSink returns the buffer piped-process input is appended into, if
// one is configured for this client.
func (c *Client) StdinSink() (buffer.Handle, bool) {
	return c.stdinSink, c.hasStdinSink
}

// SetStdinSink configures (or clears) the client's stdin-sink buffer.
func (c *Client) SetStdinSink(h buffer.Handle, ok bool) {
	c.stdinSink, c.hasStdinSink = h, ok
}

// HasUI reports whether the client attached with a real terminal (as
// opposed to a headless/scripted connection), per spec.md §3.
func (c *Client) HasUI() bool { return c.hasUI }

// SetHasUI sets the UI-present flag, normally fixed at attach time.
func (c *Client) SetHasUI(v bool) { c.hasUI = v }
