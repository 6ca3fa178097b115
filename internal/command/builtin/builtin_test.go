package builtin

import (
	"strings"
	"testing"

	"github.com/pepper-edit/pepper/internal/buffer"
	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/command"
	"github.com/pepper-edit/pepper/internal/event"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/register"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

func newTestContext() (*command.Manager, *command.Context, client.Handle) {
	m := command.NewManager(Table())
	clients := client.NewManager()
	h := clients.OnJoined()
	ctx := &command.Context{
		Buffers:      buffer.NewCollection(),
		Views:        buffer.NewViewCollection(),
		Clients:      clients,
		Processes:    process.NewPool(),
		Events:       event.New(),
		Registers:    register.New(),
		StatusBar:    statusbar.New(),
		History:      m.History(),
		ClientHandle: h,
		HasClient:    true,
		Output:       &strings.Builder{},
	}
	return m, ctx, h
}

func TestBuiltin_PrintJoinsArgsWithSpace(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `print hello world`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got := ctx.Output.String(); got != "hello world " {
		t.Fatalf("got output %q", got)
	}
}

func TestBuiltin_RegisterSetThenGet(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `register a hello`); err != nil {
		t.Fatalf("set: %v", err)
	}
	ctx.Output.Reset()
	if _, err := m.Eval(ctx, `register a`); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := ctx.Output.String(); got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestBuiltin_QuitBlockedByUnsavedChanges(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `open /tmp/does-not-matter`); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := m.Eval(ctx, `edit hi`); err != nil {
		t.Fatalf("edit: %v", err)
	}

	_, err := m.Eval(ctx, `quit`)
	if err == nil {
		t.Fatal("expected quit to be blocked by unsaved changes")
	}
	if pe, ok := err.(*command.PlainError); !ok || pe.Kind != command.ErrUnsavedChanges {
		t.Fatalf("got err=%v, want ErrUnsavedChanges", err)
	}

	op, err := m.Eval(ctx, `quit!`)
	if err != nil {
		t.Fatalf("quit! should bypass the check: %v", err)
	}
	if op != command.OpQuit {
		t.Fatalf("got op=%v, want OpQuit", op)
	}
}

func TestBuiltin_DefRegistersMacroAndSubstitutesParams(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `def greet name {print hello {name}}`); err != nil {
		t.Fatalf("def: %v", err)
	}
	if _, err := m.Eval(ctx, `greet world`); err != nil {
		t.Fatalf("greet: %v", err)
	}
	if got := ctx.Output.String(); got != "hello world " {
		t.Fatalf("got %q, want %q", got, "hello world ")
	}
}

func TestBuiltin_DefHiddenFlag(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `def secret {print shh} -hidden`); err != nil {
		t.Fatalf("def: %v", err)
	}
	macros := m.Macros()
	mc, ok := macros["secret"]
	if !ok {
		t.Fatal("expected macro 'secret' to be registered")
	}
	if !mc.Hidden {
		t.Fatal("expected macro to be marked hidden")
	}
}

func TestBuiltin_MacroErrorFraming(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `def broken {no-such-command}`); err != nil {
		t.Fatalf("def: %v", err)
	}
	_, err := m.Eval(ctx, `broken`)
	if err == nil {
		t.Fatal("expected an error from the undefined inner command")
	}
	me, ok := err.(*command.MacroError)
	if !ok {
		t.Fatalf("got %T, want *command.MacroError", err)
	}
	if me.MacroName != "broken" {
		t.Fatalf("got macro name %q, want %q", me.MacroName, "broken")
	}
	display := err.Display(`broken`, "")
	if !strings.Contains(display, "@ command macro 'broken'") {
		t.Fatalf("display missing macro framing: %q", display)
	}
	if !strings.Contains(display, "no such command 'no-such-command'") {
		t.Fatalf("display missing inner error message: %q", display)
	}
}

func TestBuiltin_RequestForwardsToRegisteringClient(t *testing.T) {
	m, ctx, h := newTestContext()
	if _, err := m.Eval(ctx, `request my-request`); err != nil {
		t.Fatalf("request: %v", err)
	}

	var gotTarget client.Handle
	var gotText string
	m.SetRequestForwarder(func(target client.Handle, commandText string) {
		gotTarget = target
		gotText = commandText
	})

	if _, err := m.Eval(ctx, `my-request arg1 arg2`); err != nil {
		t.Fatalf("forwarded eval: %v", err)
	}
	if gotTarget != h {
		t.Fatalf("got target %v, want %v", gotTarget, h)
	}
	if gotText != `my-request arg1 arg2` {
		t.Fatalf("got text %q", gotText)
	}
}

func TestBuiltin_RequestRejectsBang(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `request r`); err != nil {
		t.Fatalf("request: %v", err)
	}
	_, err := m.Eval(ctx, `r!`)
	if _, ok := err.(*command.BangError); !ok {
		t.Fatalf("got err=%v, want *command.BangError", err)
	}
}

func TestBuiltin_HistoryListsPriorSubmissions(t *testing.T) {
	m, ctx, _ := newTestContext()
	if _, err := m.Eval(ctx, `print a`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	// Eval (unlike EvalScript) does not itself record history; simulate a
	// config-script submission explicitly.
	m.History().Add("print a")
	ctx.Output.Reset()
	if _, err := m.Eval(ctx, `history`); err != nil {
		t.Fatalf("history: %v", err)
	}
	if got := ctx.Output.String(); !strings.Contains(got, "print a") {
		t.Fatalf("got %q, want it to contain %q", got, "print a")
	}
}
