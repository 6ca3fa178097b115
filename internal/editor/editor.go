// Package editor wires components A-H (internal/command, internal/event,
// internal/input, internal/mode, internal/buffer, internal/client,
// internal/process) into the single Editor type a server process owns,
// per spec.md §2's data/control flow: raw client events are decoded by
// internal/session, handed to Editor's per-client entry points here,
// which append keys or evaluate commands, drive command handlers that
// mutate state and enqueue events, drain the event queue, and finally
// render a frame back out through internal/render.
package editor

import (
	"strings"

	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/command"
	"github.com/pepper-edit/pepper/internal/command/builtin"
	"github.com/pepper-edit/pepper/internal/event"
	"github.com/pepper-edit/pepper/internal/input"
	"github.com/pepper-edit/pepper/internal/mode"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/register"
	"github.com/pepper-edit/pepper/internal/render"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

// keymap is the Matcher internal/input consults before handing keys to
// the current mode. The core's key-map expansion policy (what prefixes
// exist, what they replace to) is deliberately out of this module's
// scope beyond the mechanism spec.md §4.4 defines; an empty keymap makes
// every key dispatch immediately (MatchNone), which is sufficient to
// drive modes end-to-end.
type keymap struct{}

func (keymap) Match([]input.Key) (input.MatchResult, []input.Key) {
	return input.MatchNone, nil
}

// clientState is everything per-client that lives outside client.Client
// (which internal/client owns as the externally-visible half): the key
// buffer, dispatcher and mode stack a connected client drives, plus its
// own status bar since only the focused client's status line is
// rendered but every client can still produce one (spec.md §4.7).
type clientState struct {
	dispatcher *input.Dispatcher
	modeCtx    *mode.Context
	statusBar  *statusbar.StatusBar
	cmdLine    *mode.CommandLine
}

// Editor owns every piece of shared state a session server process
// maintains: buffers, views, clients, the command manager, registers,
// the process pool and the event queue, plus one clientState per
// attached client.
type Editor struct {
	Buffers   *buffer.Collection
	Views     *buffer.ViewCollection
	Clients   *client.Manager
	Commands  *command.Manager
	Registers *register.Table
	Processes *process.Pool
	Events    *event.Queue

	clients map[client.Handle]*clientState
}

// New constructs an Editor with the builtin command table installed and
// no clients attached.
func New() *Editor {
	return &Editor{
		Buffers:   buffer.NewCollection(),
		Views:     buffer.NewViewCollection(),
		Clients:   client.NewManager(),
		Commands:  command.NewManager(builtin.Table()),
		Registers: register.New(),
		Processes: process.NewPool(),
		Events:    event.New(),
		clients:   make(map[client.Handle]*clientState),
	}
}

// OnClientJoined allocates a new client and its input pipeline, per
// spec.md §4.6's on_joined and §4.4's per-client key buffer.
func (e *Editor) OnClientJoined(hasUI bool) client.Handle {
	h := e.Clients.OnJoined()
	if c := e.Clients.Get(h); c != nil {
		c.SetHasUI(hasUI)
	}

	cs := &clientState{statusBar: statusbar.New()}
	modeCtx := &mode.Context{
		Buffers:      e.Buffers,
		Views:        e.Views,
		Clients:      e.Clients,
		Commands:     e.Commands,
		Registers:    e.Registers,
		StatusBar:    cs.statusBar,
		Processes:    e.Processes,
		ClientHandle: h,
	}
	cs.modeCtx = modeCtx
	cs.dispatcher = input.NewDispatcher(e.Registers)
	cs.dispatcher.Matcher = keymap{}
	cs.dispatcher.Mode = mode.New(modeCtx)
	cs.dispatcher.DrainEvents = func() { e.Events.DrainAll(e.onEvent) }
	modeCtx.SetMode = func(m input.Mode) {
		cs.dispatcher.Mode = m
		if cl, ok := m.(*mode.CommandLine); ok {
			cs.cmdLine = cl
		} else {
			cs.cmdLine = nil
		}
	}
	modeCtx.Dispatcher = cs.dispatcher

	e.clients[h] = cs
	return h
}

// OnClientLeft tears down a client's views, targeting entries, and input
// pipeline, per spec.md §3's lifecycle summary.
func (e *Editor) OnClientLeft(h client.Handle) {
	if c := e.Clients.Get(h); c != nil {
		if vh, ok := c.BufferViewHandle(); ok {
			e.Views.Remove(vh)
		}
	}
	delete(e.clients, h)
	e.Clients.OnLeft(h)
}

// Focus changes the focused client and, per spec.md §4.4's cancellation
// rule, clears the new focus target's pending key buffer and macro
// recording state.
func (e *Editor) Focus(h client.Handle) {
	if !e.Clients.Focus(h) {
		return
	}
	if cs, ok := e.clients[h]; ok {
		cs.dispatcher.Cancel(mode.New(cs.modeCtx))
	}
}

// HandleKey parses and appends one key spec to h's key buffer and runs
// the dispatcher algorithm of spec.md §4.4 to fixed point.
func (e *Editor) HandleKey(h client.Handle, keySpec string) (input.Control, error) {
	cs, ok := e.clients[h]
	if !ok {
		return input.ControlContinue, nil
	}
	s := cs.dispatcher.Buffer.Len()
	if err := cs.dispatcher.Buffer.Append(keySpec); err != nil {
		return input.ControlContinue, err
	}
	ctl := cs.dispatcher.DispatchBatch(s, mode.New(cs.modeCtx))
	return ctl, nil
}

// HandleResize updates h's viewport.
func (e *Editor) HandleResize(h client.Handle, w, height int) {
	if c := e.Clients.Get(h); c != nil {
		c.SetViewport(client.Viewport{Width: w, Height: height})
		c.NeedsRedraw = true
	}
}

// HandleStdin appends bytes to h's configured stdin-sink buffer view, if
// any, inserting at every cursor the same way a keystroke would.
func (e *Editor) HandleStdin(h client.Handle, data []byte) {
	c := e.Clients.Get(h)
	if c == nil {
		return
	}
	sinkHandle, ok := c.StdinSink()
	if !ok {
		return
	}
	for _, vh := range e.viewsOnBuffer(sinkHandle) {
		e.Views.InsertText(e.Buffers, vh, string(data))
	}
}

func (e *Editor) viewsOnBuffer(h buffer.Handle) []buffer.ViewHandle {
	var out []buffer.ViewHandle
	e.Views.All(func(vh buffer.ViewHandle, v *buffer.View) {
		if v.BufferHandle == h {
			out = append(out, vh)
		}
	})
	return out
}

// HandleCommands evaluates text as a top-level script under h's
// identity, recording history and writing any output or error to h's
// status bar, per spec.md §4.2/§7.
func (e *Editor) HandleCommands(h client.Handle, text string) command.Operation {
	cs, ok := e.clients[h]
	if !ok {
		return command.OpNone
	}
	ctx := &command.Context{
		Buffers:      e.Buffers,
		Views:        e.Views,
		Clients:      e.Clients,
		Processes:    e.Processes,
		Events:       e.Events,
		Registers:    e.Registers,
		StatusBar:    cs.statusBar,
		History:      e.Commands.History(),
		ClientHandle: h,
		HasClient:    true,
		Output:       &strings.Builder{},
	}
	op, err := e.Commands.EvalScript(ctx, text)
	e.Events.DrainAll(e.onEvent)
	if err != nil {
		cs.statusBar.Write(statusbar.Error).Str(err.Display(text, ctx.SourcePath))
		return op
	}
	if ctx.Output.Len() > 0 {
		cs.statusBar.Write(statusbar.Info).Str(ctx.Output.String())
	}
	return op
}

// OnProcessOutput forwards a process pool stdout chunk into evaluated
// commands, per spec.md §4.8.
func (e *Editor) OnProcessOutput(idx process.Index, chunk []byte) {
	ctx := e.processCtx(idx)
	e.Commands.OnProcessOutput(ctx, e.Processes, idx, chunk)
	e.Events.DrainAll(e.onEvent)
}

// OnProcessExit forwards a process exit notification into its configured
// one-shot substituted command, if any. A non-UTF-8 accumulator is
// surfaced as a status-bar error on the spawning client instead.
func (e *Editor) OnProcessExit(idx process.Index, success bool) {
	ctx := e.processCtx(idx)
	e.Commands.OnProcessExit(ctx, e.Processes, idx, success)
	e.Events.DrainAll(e.onEvent)
}

// processCtx builds a Context for a process-pool callback, resolving the
// owning client's status bar (if any) so errors land where that client
// can see them, rather than on a status bar nobody renders.
func (e *Editor) processCtx(idx process.Index) *command.Context {
	statusBar := statusbar.New()
	if h, hasClient := e.Processes.ClientOf(idx); hasClient {
		if cs, ok := e.clients[h]; ok {
			statusBar = cs.statusBar
		}
	}
	return &command.Context{
		Buffers:   e.Buffers,
		Views:     e.Views,
		Clients:   e.Clients,
		Processes: e.Processes,
		Events:    e.Events,
		Registers: e.Registers,
		History:   e.Commands.History(),
		StatusBar: statusBar,
		Output:    &strings.Builder{},
	}
}

// onEvent is the event queue's generic consumer: today the only reaction
// the core itself needs is none (buffer/view mutation already happens
// synchronously inside the command/mode call that produced the event);
// onEvent exists as the single seam plugins and future subsystems would
// hook into, per spec.md §2's "fanning out to B, D, E, F, plugins".
func (e *Editor) onEvent(event.Event) {}

// RenderFrame computes a display frame for client h, per spec.md §4.7's
// per-tick render pass: highlight (out of core scope), status bar (only
// for the focused client), scroll-to-fit, then one frame.
func (e *Editor) RenderFrame(h client.Handle) *render.Frame {
	c := e.Clients.Get(h)
	cs, ok := e.clients[h]
	if c == nil || !ok {
		return render.NewFrame(0, 0)
	}
	vp := c.Viewport()

	var buf *buffer.TextBuffer
	var view *buffer.View
	if vh, hasView := c.BufferViewHandle(); hasView {
		view = e.Views.Get(vh)
		if view != nil {
			buf = e.Buffers.Get(view.BufferHandle)
		}
	}

	statusMargin := 0
	statusText := ""
	statusError := false
	if focused, ok := e.Clients.FocusedHandle(); ok && focused == h {
		statusMargin = 1
		msg := cs.statusBar.Current()
		statusText = msg.Text
		statusError = msg.Kind == statusbar.Error
	}

	cmdActive := false
	cmdText, cmdCursor := "", 0
	if cs.cmdLine != nil {
		cmdActive = true
		cmdText = cs.cmdLine.Text()
		cmdCursor = cs.cmdLine.Cursor()
		if statusMargin == 0 {
			statusMargin = 1
		}
	}

	scroll := c.ScrollLine()
	if view != nil && len(view.Cursors()) > 0 {
		mainLine := view.MainCursor().Position.Line
		textHeight := vp.Height - statusMargin
		scroll = render.ScrollToFit(scroll, mainLine, textHeight)
		c.SetScrollLine(scroll)
	}

	return render.Render(render.Params{
		Width:             vp.Width,
		Height:            vp.Height,
		Buf:               buf,
		View:              view,
		ScrollLine:        scroll,
		StatusMargin:      statusMargin,
		StatusText:        statusText,
		StatusError:       statusError,
		CommandLineActive: cmdActive,
		CommandLineText:   cmdText,
		CommandLineCursor: cmdCursor,
	})
}
