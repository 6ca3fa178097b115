// Package builtin provides the table of built-in editor commands, wired
// against internal/command.Context by name from Table(), per spec.md §4.2.
package builtin

import (
	"fmt"

	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/command"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/register"
)

// Table returns every built-in command, ready to hand to
// command.NewManager.
func Table() []command.Command {
	return []command.Command{
		{Name: "open", Fn: open},
		{Name: "save", AcceptBang: true, Fn: save},
		{Name: "save-all", AcceptBang: true, Fn: saveAll},
		{Name: "close", AcceptBang: true, Fn: closeView},
		{Name: "close-all", AcceptBang: true, Fn: closeAll},
		{Name: "quit", AcceptBang: true, Fn: quit},
		{Name: "quit-all", AcceptBang: true, Fn: quitAll},
		{Name: "edit", Fn: edit},
		{Name: "print", Fn: print},
		{Name: "register", Fn: registerCmd},
		{Name: "spawn", Fn: spawn},
		{Name: "history", Fn: history},
		{Name: "request", Fn: request},
		{Name: "def", AcceptBang: true, Fn: def},
	}
}

// currentView resolves the acting client's view handle; ok is false if the
// client has no view opened (e.g. a headless request-only connection).
func currentView(ctx *command.Context) (buffer.ViewHandle, bool) {
	if !ctx.HasClient {
		return 0, false
	}
	c := ctx.Clients.Get(ctx.ClientHandle)
	if c == nil {
		return 0, false
	}
	return c.BufferViewHandle()
}

func open(ctx *command.Context) (command.Operation, error) {
	v, err := ctx.Args.Next()
	if err != nil {
		return command.OpNone, err
	}
	if err := ctx.Args.AssertEmpty(); err != nil {
		return command.OpNone, err
	}
	path := v.Token.String(ctx.Source)

	h := ctx.Buffers.Open(path, "")
	viewHandle := ctx.Views.New(h)

	if ctx.HasClient {
		if c := ctx.Clients.Get(ctx.ClientHandle); c != nil {
			c.SetBufferViewHandle(viewHandle, true)
			c.NeedsRedraw = true
		}
	}
	return command.OpNone, nil
}

func save(ctx *command.Context) (command.Operation, error) {
	viewHandle, ok := currentView(ctx)
	if !ok {
		return command.OpNone, &command.PlainError{Kind: command.ErrNoBufferOpened, Message: "no buffer opened"}
	}
	v := ctx.Views.Get(viewHandle)
	if v == nil {
		return command.OpNone, &command.PlainError{Kind: command.ErrInvalidBufferHandle, Message: "invalid view"}
	}
	buf := ctx.Buffers.Get(v.BufferHandle)
	if buf == nil {
		return command.OpNone, &command.PlainError{Kind: command.ErrInvalidBufferHandle, Message: "invalid buffer"}
	}
	buf.SetSaved()
	return command.OpNone, nil
}

func saveAll(ctx *command.Context) (command.Operation, error) {
	ctx.Buffers.All(func(_ buffer.Handle, b *buffer.TextBuffer) {
		b.SetSaved()
	})
	return command.OpNone, nil
}

func closeView(ctx *command.Context) (command.Operation, error) {
	viewHandle, ok := currentView(ctx)
	if !ok {
		return command.OpNone, nil
	}
	v := ctx.Views.Get(viewHandle)
	if v == nil {
		return command.OpNone, nil
	}
	if !ctx.Args.Bang {
		if buf := ctx.Buffers.Get(v.BufferHandle); buf != nil && buf.NeedsSave() {
			return command.OpNone, &command.PlainError{Kind: command.ErrUnsavedChanges, Message: "unsaved changes, use close! to discard"}
		}
	}
	bufferHandle := v.BufferHandle
	ctx.Views.Remove(viewHandle)
	if c := ctx.Clients.Get(ctx.ClientHandle); ctx.HasClient && c != nil {
		c.SetBufferViewHandle(0, false)
	}
	if len(ctx.Views.Siblings(viewHandle)) == 0 {
		ctx.Buffers.Close(bufferHandle)
	}
	return command.OpNone, nil
}

func closeAll(ctx *command.Context) (command.Operation, error) {
	if !ctx.Args.Bang && ctx.Buffers.AnyNeedsSave() {
		return command.OpNone, &command.PlainError{Kind: command.ErrUnsavedChanges, Message: "unsaved changes, use close-all! to discard"}
	}
	ctx.Buffers.All(func(h buffer.Handle, _ *buffer.TextBuffer) {
		ctx.Buffers.Close(h)
	})
	return command.OpNone, nil
}

func quit(ctx *command.Context) (command.Operation, error) {
	if !ctx.Args.Bang && ctx.Buffers.AnyNeedsSave() {
		return command.OpNone, &command.PlainError{Kind: command.ErrUnsavedChanges, Message: "unsaved changes, use quit! to discard"}
	}
	return command.OpQuit, nil
}

func quitAll(ctx *command.Context) (command.Operation, error) {
	if !ctx.Args.Bang && ctx.Buffers.AnyNeedsSave() {
		return command.OpNone, &command.PlainError{Kind: command.ErrUnsavedChanges, Message: "unsaved changes, use quit-all! to discard"}
	}
	return command.OpQuitAll, nil
}

func edit(ctx *command.Context) (command.Operation, error) {
	viewHandle, ok := currentView(ctx)
	if !ok {
		return command.OpNone, &command.PlainError{Kind: command.ErrNoBufferOpened, Message: "no buffer opened"}
	}
	v, err := ctx.Args.Next()
	if err != nil {
		return command.OpNone, err
	}
	if err := ctx.Args.AssertEmpty(); err != nil {
		return command.OpNone, err
	}
	ctx.Views.InsertText(ctx.Buffers, viewHandle, v.Token.String(ctx.Source))
	return command.OpNone, nil
}

func print(ctx *command.Context) (command.Operation, error) {
	for {
		v, ok, err := ctx.Args.TryNext()
		if err != nil {
			return command.OpNone, err
		}
		if !ok {
			break
		}
		ctx.Output.WriteString(v.Token.String(ctx.Source))
		ctx.Output.WriteByte(' ')
	}
	return command.OpNone, nil
}

func registerCmd(ctx *command.Context) (command.Operation, error) {
	keyVal, err := ctx.Args.Next()
	if err != nil {
		return command.OpNone, err
	}
	keyStr := keyVal.Token.String(ctx.Source)
	if len(keyStr) != 1 {
		return command.OpNone, &command.TokenError{Kind: command.ErrInvalidRegisterKey, Token: keyVal.Token}
	}
	key := register.Key(keyStr[0])
	if !register.Valid(key) {
		return command.OpNone, &command.TokenError{Kind: command.ErrInvalidRegisterKey, Token: keyVal.Token}
	}

	valVal, hasVal, err := ctx.Args.TryNext()
	if err != nil {
		return command.OpNone, err
	}
	if err := ctx.Args.AssertEmpty(); err != nil {
		return command.OpNone, err
	}

	if !hasVal {
		ctx.Output.WriteString(ctx.Registers.Get(key))
		return command.OpNone, nil
	}
	ctx.Registers.Set(key, valVal.Token.String(ctx.Source))
	return command.OpNone, nil
}

func spawn(ctx *command.Context) (command.Operation, error) {
	var onOutput, outputVar string
	var splitByte byte
	hasSplitByte := false
	flags := []command.Flag{
		{Name: "on-output"},
		{Name: "output-var"},
		{Name: "split"},
	}
	if err := ctx.Args.GetFlags(flags); err != nil {
		return command.OpNone, err
	}
	if flags[0].Value != nil {
		onOutput = flags[0].Value.Token.String(ctx.Source)
	}
	if flags[1].Value != nil {
		outputVar = flags[1].Value.Token.String(ctx.Source)
	} else {
		outputVar = "output"
	}
	if flags[2].Value != nil {
		s := flags[2].Value.Token.String(ctx.Source)
		if len(s) != 1 {
			return command.OpNone, &command.TokenError{Kind: command.ErrInvalidToken, Token: flags[2].Value.Token}
		}
		splitByte = s[0]
		hasSplitByte = true
	}

	var argv []string
	for {
		v, ok, err := ctx.Args.TryNext()
		if err != nil {
			return command.OpNone, err
		}
		if !ok {
			break
		}
		argv = append(argv, v.Token.String(ctx.Source))
	}
	if len(argv) == 0 {
		return command.OpNone, &command.PlainError{Kind: command.ErrParseArg, Message: "spawn requires a command"}
	}

	_, err := ctx.Processes.Spawn(process.Spec{
		Command:       argv,
		ClientHandle:  ctx.ClientHandle,
		HasClient:     ctx.HasClient,
		OutputVarName: outputVar,
		OnOutput:      onOutput,
		SplitOnByte:   splitByte,
		HasSplitByte:  hasSplitByte,
	})
	if err != nil {
		return command.OpNone, &command.PlainError{Kind: command.ErrParseArg, Message: err.Error()}
	}
	return command.OpNone, nil
}

func history(ctx *command.Context) (command.Operation, error) {
	if err := ctx.Args.AssertEmpty(); err != nil {
		return command.OpNone, err
	}
	if ctx.History == nil {
		return command.OpNone, nil
	}
	for i := 0; i < ctx.History.Len(); i++ {
		line, _ := ctx.History.At(i)
		fmt.Fprintf(ctx.Output, "%2d: %s\n", i, line)
	}
	return command.OpNone, nil
}

// request registers name as a request command bound to the sending
// client, so future invocations of name forward their raw text to that
// client instead of running locally, per spec.md §3/§4.7.
func request(ctx *command.Context) (command.Operation, error) {
	nameVal, err := ctx.Args.Next()
	if err != nil {
		return command.OpNone, err
	}
	if err := ctx.Args.AssertEmpty(); err != nil {
		return command.OpNone, err
	}
	if !ctx.HasClient {
		return command.OpNone, &command.PlainError{Kind: command.ErrNoBufferOpened, Message: "request needs a sending client"}
	}
	name := nameVal.Token.String(ctx.Source)
	var target client.Handle = ctx.ClientHandle
	if err := ctx.Commands.RegisterRequest(name, target); err != nil {
		return command.OpNone, err
	}
	return command.OpNone, nil
}

// def registers a macro command: "def name [params...] { body }". A
// trailing "-hidden" flag marks it hidden from completion; "def!"
// silently overwrites an existing macro of the same name (plain "def"
// also overwrites -- macros have no separate "already defined" error in
// spec.md, only the bang-acceptance convention common to every builtin).
func def(ctx *command.Context) (command.Operation, error) {
	flags := []command.Flag{{Name: "hidden"}}
	if err := ctx.Args.GetFlags(flags); err != nil {
		return command.OpNone, err
	}
	hidden := flags[0].Value != nil

	nameVal, err := ctx.Args.Next()
	if err != nil {
		return command.OpNone, err
	}
	name := nameVal.Token.String(ctx.Source)

	var words []string
	for {
		v, ok, err := ctx.Args.TryNext()
		if err != nil {
			return command.OpNone, err
		}
		if !ok {
			break
		}
		words = append(words, v.Token.String(ctx.Source))
	}
	if len(words) == 0 {
		return command.OpNone, &command.PlainError{Kind: command.ErrParseArg, Message: "def requires a command body"}
	}
	params := words[:len(words)-1]
	body := words[len(words)-1]

	if err := ctx.Commands.RegisterMacro(name, ctx.Args.Bang, params, body, hidden, ctx.SourcePath); err != nil {
		return command.OpNone, err
	}
	return command.OpNone, nil
}
