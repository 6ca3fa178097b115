// Package mode implements the editor's normal/insert/command-line input
// modes (input.Mode), per spec.md §4.4. Exact key bindings are an editor
// policy the spec leaves unspecified beyond "modal dispatch"; the bindings
// below are a conventional vi-like minimum sufficient to exercise every
// subsystem the spec does define (multi-cursor edits, undo, command-line
// evaluation); no binding starts or stops macro recording.
package mode

import (
	"strings"

	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/command"
	"github.com/pepper-edit/pepper/internal/input"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/register"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

// Context bundles the editor state every mode needs to act on the
// current client's view and to fall back to the command language.
type Context struct {
	Buffers   *buffer.Collection
	Views     *buffer.ViewCollection
	Clients   *client.Manager
	Commands  *command.Manager
	Registers *register.Table
	StatusBar *statusbar.StatusBar
	Processes *process.Pool

	ClientHandle client.Handle

	Dispatcher *input.Dispatcher

	// SetMode returns control to the caller when the current mode changes,
	// so the dispatcher's d.Mode field can be reassigned.
	SetMode func(input.Mode)
}

func (c *Context) currentView() (buffer.ViewHandle, bool) {
	cl := c.Clients.Get(c.ClientHandle)
	if cl == nil {
		return 0, false
	}
	return cl.BufferViewHandle()
}

func (c *Context) newCommandContext() *command.Context {
	return &command.Context{
		Buffers:      c.Buffers,
		Views:        c.Views,
		Clients:      c.Clients,
		Registers:    c.Registers,
		StatusBar:    c.StatusBar,
		Processes:    c.Processes,
		History:      c.Commands.History(),
		ClientHandle: c.ClientHandle,
		HasClient:    true,
		Output:       &strings.Builder{},
	}
}

// New returns a freshly constructed Normal mode, the editor's default.
func New(ctx *Context) *Normal {
	return &Normal{ctx: ctx}
}
