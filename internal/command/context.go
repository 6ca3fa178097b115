package command

import (
	"strings"

	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/event"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/register"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

// Operation is the side effect a builtin asks the caller to perform after
// it returns, distinct from the error channel: quitting is not a failure.
type Operation int

const (
	OpNone Operation = iota
	OpQuit
	OpQuitAll
)

// Context bundles every piece of editor state a builtin command handler
// may touch. The caller builds it and hands it to Manager.Eval, which sets
// Args, Source and Commands before each builtin runs; it is passed by
// reference so a handler's writes (to Output, to Registers, to
// the buffer/view collections) are visible to the evaluator that called
// it, per spec.md §3's CommandContext.
type Context struct {
	Buffers   *buffer.Collection
	Views     *buffer.ViewCollection
	Clients   *client.Manager
	Processes *process.Pool
	Events    *event.Queue
	Registers *register.Table
	StatusBar *statusbar.StatusBar
	History   *History

	// Commands is the manager currently evaluating this command, handed
	// back to builtins that need to register a macro or a request (e.g.
	// "def", "request"), per spec.md §3's macro/request command
	// sources.
	Commands *Manager

	ClientHandle client.Handle
	HasClient    bool

	// SourcePath names the script or macro file the current command line
	// came from, used only for error display framing (spec.md §4.2).
	SourcePath string
	// Source is the raw text of the command line currently being
	// evaluated; every Token a handler receives via Args must be resolved
	// against this string, not SourcePath.
	Source string
	Args   *Args

	Output *strings.Builder
}

// CommandFn is the signature every builtin command implements.
type CommandFn func(ctx *Context) (Operation, error)

// Command pairs a name with its handler and bang-acceptance flag.
type Command struct {
	Name       string
	AcceptBang bool
	Fn         CommandFn
}
