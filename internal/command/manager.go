package command

import (
	"strconv"
	"strings"

	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

// MacroCommand is a user-registered command whose body is a script
// template, re-evaluated on every invocation with its {param} markers
// textually substituted by the caller's positional arguments, per
// spec.md §4.2/§9.
type MacroCommand struct {
	Name       string
	AcceptBang bool
	Params     []string
	Body       string
	// Hidden marks a macro that should not be listed in user-facing
	// command completion, per spec.md §3's macro command data model.
	Hidden bool
	// SourcePath is the script the "def" that created this macro was
	// itself read from (empty for a macro defined from the interactive
	// command line). It is restored onto Context.SourcePath while the
	// macro's body evaluates, so an error raised from inside it frames
	// against the macro's origin file rather than whatever invoked it
	// (spec.md §3/§4.2's "@ <source_path>" display).
	SourcePath string
}

// RequestForwarder ships a request command's raw text to the client that
// registered to handle it, over whatever transport the caller wires in
// (internal/session in the real server). It is called with the forwarding
// target's handle and the literal command text.
type RequestForwarder func(target client.Handle, commandText string)

// Manager resolves command names to handlers. Resolution order is macro
// table, then request table, then builtin table (macros shadow both, so a
// config script can redefine a builtin's name, and a registered request
// shadows a builtin of the same name but never a macro). It also drives
// script evaluation and owns command-line history.
type Manager struct {
	builtins map[string]Command
	macros   map[string]*MacroCommand
	requests map[string]client.Handle

	history   *History
	forwarder RequestForwarder
}

// NewManager returns a Manager seeded with the given builtin table.
func NewManager(builtins []Command) *Manager {
	m := &Manager{
		builtins: make(map[string]Command, len(builtins)),
		macros:   make(map[string]*MacroCommand),
		requests: make(map[string]client.Handle),
		history:  NewHistory(),
	}
	for _, c := range builtins {
		m.builtins[c.Name] = c
	}
	return m
}

// History returns the manager's command-line history ring.
func (m *Manager) History() *History { return m.history }

// SetRequestForwarder installs the callback used to ship request commands
// to their registered client.
func (m *Manager) SetRequestForwarder(fwd RequestForwarder) { m.forwarder = fwd }

// RegisterRequest binds a command name to a client that will receive the
// raw command text whenever the name is invoked, per spec.md §4.2/§4.7.
func (m *Manager) RegisterRequest(name string, target client.Handle) error {
	if !isValidCommandName(name) {
		return &PlainError{Kind: ErrInvalidCommandName, Message: "invalid command name '" + name + "'"}
	}
	m.requests[name] = target
	return nil
}

func isValidCommandName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// RegisterMacro installs (or overwrites) a macro command, recording the
// source path it was defined from (ctx.SourcePath at the "def" call site).
func (m *Manager) RegisterMacro(name string, acceptBang bool, params []string, body string, hidden bool, sourcePath string) error {
	if !isValidCommandName(name) {
		return &PlainError{Kind: ErrInvalidCommandName, Message: "invalid command name '" + name + "'"}
	}
	m.macros[name] = &MacroCommand{
		Name:       name,
		AcceptBang: acceptBang,
		Params:     params,
		Body:       body,
		Hidden:     hidden,
		SourcePath: sourcePath,
	}
	return nil
}

// Macros returns every registered macro, for listing/completion.
func (m *Manager) Macros() map[string]*MacroCommand { return m.macros }

// commandSource tags which of the three disjoint command tables a name
// resolved to, per spec.md §3/§4.2.
type commandSource int

const (
	sourceNone commandSource = iota
	sourceMacro
	sourceRequest
	sourceBuiltin
)

// findCommand resolves name against the macro, request, then builtin
// tables in that order.
func (m *Manager) findCommand(name string) (macro *MacroCommand, builtin Command, target client.Handle, src commandSource) {
	if mc, ok := m.macros[name]; ok {
		return mc, Command{}, 0, sourceMacro
	}
	if h, ok := m.requests[name]; ok {
		return nil, Command{}, h, sourceRequest
	}
	if bc, ok := m.builtins[name]; ok {
		return nil, bc, 0, sourceBuiltin
	}
	return nil, Command{}, 0, sourceNone
}

// paramMarker returns the internal placeholder substituted for the i'th
// formal parameter during macro expansion. It uses NUL bytes, which can
// never appear in a script a user typed, rather than the body's own
// "{name}" spelling (spec.md §9: "delimit parameter markers with
// characters that cannot appear in well-formed tokens"), since '{' and
// '}' are themselves valid brace-group Text token characters and a
// parameter value containing e.g. "{other}" would otherwise be
// re-substituted by a later param's replacement pass.
func paramMarker(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}

// substituteParams expands a macro body for one invocation. Both passes
// run as a single left-to-right scan via strings.Replacer, so neither a
// body's literal "{name}" text nor an argument value's contents are ever
// rescanned for a marker introduced by the other pass.
func substituteParams(body string, params, values []string) string {
	if len(params) == 0 {
		return body
	}
	toMarker := make([]string, 0, len(params)*2)
	for i, p := range params {
		toMarker = append(toMarker, "{"+p+"}", paramMarker(i))
	}
	body = strings.NewReplacer(toMarker...).Replace(body)

	toValue := make([]string, 0, len(values)*2)
	for i, v := range values {
		toValue = append(toValue, paramMarker(i), v)
	}
	return strings.NewReplacer(toValue...).Replace(body)
}

// parseNameAndBang reads the command name token (its first token) off
// source, splitting a trailing '!' into the bang flag, and returns the
// token iterator positioned right after it (ready for newArgs).
func parseNameAndBang(source string) (name string, nameTok Token, bang bool, rest TokenIter, err Error) {
	it := NewTokenIter(source)
	kind, tok, ok := it.Next()
	if !ok {
		return "", Token{}, false, TokenIter{}, &PlainError{Kind: ErrInvalidCommandName, Message: "empty command"}
	}
	if kind == Unterminated {
		return "", Token{}, false, TokenIter{}, &TokenError{Kind: ErrUnterminatedToken, Token: tok}
	}
	if kind != Text {
		return "", Token{}, false, TokenIter{}, &TokenError{Kind: ErrInvalidCommandName, Token: tok}
	}
	text := tok.String(source)
	if strings.HasSuffix(text, "!") {
		bang = true
		text = text[:len(text)-1]
	}
	if !isValidCommandName(text) {
		return "", Token{}, false, TokenIter{}, &TokenError{Kind: ErrInvalidCommandName, Token: tok}
	}
	return text, tok, bang, *it, nil
}

// Eval parses and runs a single logical command line against ctx.
func (m *Manager) Eval(ctx *Context, commandLine string) (Operation, Error) {
	return m.evalDepth(ctx, commandLine, 0)
}

const maxMacroDepth = 32

func (m *Manager) evalDepth(ctx *Context, commandLine string, depth int) (Operation, Error) {
	name, nameTok, bang, rest, perr := parseNameAndBang(commandLine)
	if perr != nil {
		return OpNone, perr
	}

	macro, builtin, target, src := m.findCommand(name)
	if src == sourceNone {
		return OpNone, &TokenError{Kind: ErrCommandNotFound, Token: nameTok}
	}

	if src == sourceRequest {
		if bang {
			return OpNone, &BangError{}
		}
		if m.forwarder != nil {
			m.forwarder(target, commandLine)
		}
		return OpNone, nil
	}

	if src == sourceMacro {
		if bang && !macro.AcceptBang {
			return OpNone, &BangError{}
		}
		if depth >= maxMacroDepth {
			return OpNone, &PlainError{Kind: ErrInvalidCommandName, Message: "macro recursion too deep"}
		}
		args := newArgs(commandLine, bang, rest)
		values := make([]string, 0, len(macro.Params))
		for range macro.Params {
			v, err := args.Next()
			if err != nil {
				if ce, ok := err.(Error); ok {
					return OpNone, ce
				}
				return OpNone, &PlainError{Kind: ErrInvalidCommandName, Message: err.Error()}
			}
			values = append(values, v.Token.String(commandLine))
		}
		body := substituteParams(macro.Body, macro.Params, values)
		prevSourcePath := ctx.SourcePath
		ctx.SourcePath = macro.SourcePath
		op, err := m.evalScriptDepth(ctx, macro.Name, body, depth+1)
		ctx.SourcePath = prevSourcePath
		return op, err
	}

	if bang && !builtin.AcceptBang {
		return OpNone, &BangError{}
	}
	args := newArgs(commandLine, bang, rest)
	ctx.Args = args
	ctx.Source = commandLine
	ctx.Commands = m
	op, err := builtin.Fn(ctx)
	if err != nil {
		if ce, ok := err.(Error); ok {
			return op, ce
		}
		return op, &PlainError{Kind: ErrInvalidCommandName, Message: err.Error()}
	}
	return op, nil
}

// evalScriptDepth runs every logical command in script in order, stopping
// at the first error (wrapped in a MacroError carrying the call-site
// framing) or a quit operation.
func (m *Manager) evalScriptDepth(ctx *Context, macroName, script string, depth int) (Operation, Error) {
	it := NewScriptIter(script)
	index := 0
	for {
		line, ok := it.Next()
		if !ok {
			return OpNone, nil
		}
		op, err := m.evalDepth(ctx, line, depth)
		if err != nil {
			return op, &MacroError{
				Index:      index,
				MacroName:  macroName,
				SourcePath: ctx.SourcePath,
				Command:    line,
				Inner:      err,
			}
		}
		if op != OpNone {
			return op, nil
		}
		index++
	}
}

// EvalScript runs every logical command in a top-level script (e.g. a
// config file or a ':' command-line submission recording history),
// recording the first line in history.
func (m *Manager) EvalScript(ctx *Context, script string) (Operation, Error) {
	if first, ok := NewScriptIter(script).Next(); ok {
		m.history.Add(first)
	}
	return m.evalScriptDepth(ctx, "", script, 0)
}

// OnProcessOutput forwards a process pool output chunk into commands to
// evaluate against the client that spawned it, per spec.md §4.8.
func (m *Manager) OnProcessOutput(ctx *Context, pool *process.Pool, idx process.Index, chunk []byte) {
	commands, clientHandle, hasClient := pool.OnOutputChunk(idx, chunk)
	for _, c := range commands {
		m.runForClient(ctx, clientHandle, hasClient, c)
	}
}

// OnProcessExit forwards a process pool exit notification into a single
// substituted command, if the process was configured to produce one. A
// non-UTF-8 accumulator (spec.md §4.8) is reported to the status bar
// instead of being evaluated.
func (m *Manager) OnProcessExit(ctx *Context, pool *process.Pool, idx process.Index, success bool) {
	cmd, ok, invalidUTF8, clientHandle, hasClient := pool.OnExit(idx, success)
	if invalidUTF8 {
		if ctx.StatusBar != nil {
			ctx.StatusBar.Write(statusbar.Error).Str("process output is not valid UTF-8")
		}
		return
	}
	if !ok {
		return
	}
	m.runForClient(ctx, clientHandle, hasClient, cmd)
}

func (m *Manager) runForClient(ctx *Context, h client.Handle, hasClient bool, script string) {
	prevHandle, prevHas := ctx.ClientHandle, ctx.HasClient
	ctx.ClientHandle, ctx.HasClient = h, hasClient
	m.EvalScript(ctx, script)
	ctx.ClientHandle, ctx.HasClient = prevHandle, prevHas
}
