// Command pepper is the launcher binary for the editor core: it either
// becomes the session server (accepting client connections on a local
// socket) or attaches as a thin client to one already running, per
// spec.md §4.7's discovery procedure and §6's CLI surface.
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pepper-edit/pepper/internal/client"
	"github.com/pepper-edit/pepper/internal/command"
	"github.com/pepper-edit/pepper/internal/editor"
	"github.com/pepper-edit/pepper/internal/platform"
	"github.com/pepper-edit/pepper/internal/process"
	"github.com/pepper-edit/pepper/internal/render"
	"github.com/pepper-edit/pepper/internal/session"
)

const version = "pepper 0.1"

var (
	helpFlag          = pflag.BoolP("help", "h", false, "print usage and exit")
	versionFlag       = pflag.BoolP("version", "v", false, "print version and exit")
	sessionFlag       = pflag.StringP("session", "s", "", "session name (default: current directory)")
	printSessionFlag  = pflag.Bool("print-session", false, "print the resolved session name and exit")
	asFocusedFlag     = pflag.Bool("as-focused-client", false, "attach without a UI, acting as the focused client")
	quitFlag          = pflag.Bool("quit", false, "ask a running server to quit, then exit")
	serverFlag        = pflag.Bool("server", false, "run as the session server instead of auto-discovering one")
	configFlag        = pflag.StringArrayP("config", "c", nil, "source a config file (repeatable)")
	configForceFlag   = pflag.StringArray("config-force", nil, "like --config, but ignore a missing file (the -c!/--config! form)")
	debugFlag         = pflag.Bool("debug", false, "enable structured debug logging to <session>.pepper-debug.log")
)

// rewriteBangFlags turns the "-c!"/"--config!" spelling spec.md §6 names
// into the plain "--config-force" flag pflag can actually parse (pflag
// shorthands are a single rune and flag names can't end a token early on
// '!'), the same textual-bang trick internal/command already applies to
// command names.
func rewriteBangFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a == "-c!":
			out = append(out, "--config-force")
		case a == "--config!":
			out = append(out, "--config-force")
		case strings.HasPrefix(a, "--config!="):
			out = append(out, "--config-force="+strings.TrimPrefix(a, "--config!="))
		default:
			out = append(out, a)
		}
	}
	return out
}

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// logPanic writes a recovered panic's value and stack to
// <session>.pepper-panic.log (and to logger) before re-panicking, so a crash
// still terminates the process (Go has no debugger-launch equivalent to
// the hook spec.md §7 describes, so this only covers the log-to-file
// half of it).
func logPanic(logger *zap.Logger, socketPath string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		if f, err := os.OpenFile(sessionName()+".pepper-panic.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			fmt.Fprintf(f, "panic: %v\nsocket: %s\n%s\n", r, socketPath, stack)
			f.Close()
		}
		logger.Error("panic",
			zap.String("socket", socketPath),
			zap.Any("value", r),
			zap.ByteString("stack", stack),
		)
		panic(r)
	}
}

func newLogger() *zap.Logger {
	if !*debugFlag {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{sessionName() + ".pepper-debug.log"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func sessionName() string {
	if *sessionFlag != "" {
		return sanitizeSessionName(*sessionFlag)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "default"
	}
	return sanitizeSessionName(filepath.Base(wd))
}

// sanitizeSessionName enforces spec.md §6's "alphanumeric only" rule for
// an explicit -s/--session name (and for the directory-derived default,
// since it can contain other characters too).
func sanitizeSessionName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}

func main() {
	pflag.CommandLine.Parse(rewriteBangFlags(os.Args[1:]))

	if *helpFlag {
		fmt.Println(version)
		pflag.Usage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Println(version)
		os.Exit(0)
	}

	name := sessionName()
	if *printSessionFlag {
		fmt.Println(name)
		os.Exit(0)
	}

	socketPath := session.SocketPath(name)
	logger := newLogger()
	defer logger.Sync()

	if *quitFlag {
		quitRunningServer(socketPath)
		return
	}

	files := pflag.Args()

	if *serverFlag {
		runServer(socketPath, logger, configPaths(), files)
		return
	}

	role, conn, listener, err := session.Connect(socketPath)
	if err != nil {
		die("could not connect to or start server: %v", err)
	}
	switch role {
	case session.RoleServer:
		runServerOnListener(listener, socketPath, logger, configPaths(), files)
	case session.RoleClient:
		runClient(conn, files)
	}
}

type configPath struct {
	path  string
	force bool
}

func configPaths() []configPath {
	var out []configPath
	for _, p := range *configFlag {
		out = append(out, configPath{path: p})
	}
	for _, p := range *configForceFlag {
		out = append(out, configPath{path: p, force: true})
	}
	return out
}

func quitRunningServer(socketPath string) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return
	}
	defer conn.Close()
	session.WriteClientEvent(conn, session.ClientEvent{
		Tag:  session.TagCommands,
		Text: "quit-all!",
	})
}

// runServer is the --server entry point: it always creates the endpoint
// (never falls back to attaching as a client), matching spec.md §6's
// "--server" flag.
func runServer(socketPath string, logger *zap.Logger, configs []configPath, files []string) {
	os.Remove(socketPath)
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		die("could not start server: %v", err)
	}
	runServerOnListener(l, socketPath, logger, configs, files)
}

func runServerOnListener(l net.Listener, socketPath string, logger *zap.Logger, configs []configPath, files []string) {
	defer session.RemoveEndpoint(socketPath)
	defer logPanic(logger, socketPath)

	ed := editor.New()
	for _, cfg := range configs {
		data, err := os.ReadFile(cfg.path)
		if err != nil {
			if cfg.force {
				continue
			}
			logger.Warn("config not found", zap.String("path", cfg.path), zap.Error(err))
			continue
		}
		runConfigScript(ed, string(data), cfg.path, logger)
	}
	for _, f := range files {
		path, _ := splitLineColumn(f)
		h := ed.Buffers.Open(path, "")
		ed.Views.New(h)
	}

	srv := session.NewServer(l)
	queue := platform.NewQueue()
	queue.ForwardSessionEvents(srv)
	queue.ForwardProcessEvents(ed.Processes)
	queue.ForwardTicks(50 * time.Millisecond)
	defer queue.Stop()

	go srv.Serve(func(conn net.Conn) client.Handle {
		return ed.OnClientJoined(true)
	})

	logger.Info("server started", zap.String("socket", socketPath))

	for req := range queue.Requests() {
		switch req.Kind {
		case platform.KindSessionEvent:
			handleSessionEvent(ed, srv, req.SessionEvent, logger)
		case platform.KindProcessOutput:
			ev := req.ProcessEvent
			if ev.Exited {
				ed.OnProcessExit(ev.Index, ev.Success)
			} else {
				ed.OnProcessOutput(ev.Index, ev.Chunk)
			}
		case platform.KindTick:
			// drives idle housekeeping; rendering below runs every pass
		}
		broadcastFrames(ed, srv)
	}
}

// runConfigScript evaluates a sourced config file with no sending client
// (spec.md §6's "-c/--config"), matching how a config script has no
// single owning client the way an interactive command line does. path is
// recorded onto the Context so a macro defined here, or an error raised
// straight out of this script, can frame its "@ <source_path>" display
// against the actual config file.
func runConfigScript(ed *editor.Editor, text, path string, logger *zap.Logger) {
	ctx := &command.Context{
		Buffers:    ed.Buffers,
		Views:      ed.Views,
		Clients:    ed.Clients,
		Processes:  ed.Processes,
		Events:     ed.Events,
		Registers:  ed.Registers,
		History:    ed.Commands.History(),
		SourcePath: path,
		Output:     &strings.Builder{},
	}
	if _, err := ed.Commands.EvalScript(ctx, text); err != nil {
		logger.Warn("config error", zap.String("detail", err.Display(text, ctx.SourcePath)))
	}
}

func handleSessionEvent(ed *editor.Editor, srv *session.Server, in session.Incoming, logger *zap.Logger) {
	if in.Closed {
		ed.OnClientLeft(in.Handle)
		return
	}
	switch in.Event.Tag {
	case session.TagKey:
		if _, err := ed.HandleKey(in.Handle, in.Event.KeySpec); err != nil {
			logger.Debug("key parse error", zap.Error(err))
		}
	case session.TagResize:
		ed.HandleResize(in.Handle, in.Event.Width, in.Event.Height)
	case session.TagCommands:
		ed.HandleCommands(in.Handle, in.Event.Text)
	case session.TagStdinInput:
		ed.HandleStdin(in.Handle, in.Event.Bytes)
	}
}

// broadcastFrames renders and sends one Display frame per attached
// client with a UI, per spec.md §4.7/§5: exactly one frame per affected
// client per processed batch.
func broadcastFrames(ed *editor.Editor, srv *session.Server) {
	ed.Clients.All(func(h client.Handle, c *client.Client) {
		if !c.HasUI() {
			return
		}
		frame := ed.RenderFrame(h)
		srv.Send(h, session.ServerEvent{Tag: session.TagDisplay, Frame: frame.Encode()})
	})
}

// splitLineColumn parses the launcher's "path:line[,column]" file
// argument form (spec.md §6); only path is used by the core today since
// jumping to a location is a UI-policy concern outside this module's
// scope, but the parse itself still has to happen at the CLI boundary.
func splitLineColumn(arg string) (path string, line int) {
	i := strings.LastIndexByte(arg, ':')
	if i < 0 {
		return arg, 0
	}
	rest := arg[i+1:]
	comma := strings.IndexByte(rest, ',')
	lineStr := rest
	if comma >= 0 {
		lineStr = rest[:comma]
	}
	n, err := strconv.Atoi(lineStr)
	if err != nil {
		return arg, 0
	}
	return arg[:i], n
}

// runClient attaches to an already-running server: puts the controlling
// terminal in raw mode, drives a tcell screen purely as a frame-blitting
// surface, and forwards local key/resize/stdin events over the wire.
func runClient(conn net.Conn, files []string) {
	cc := session.NewClientConn(conn)
	defer cc.Close()

	hasUI := !*asFocusedFlag && isatty.IsTerminal(os.Stdin.Fd())

	for _, f := range files {
		cc.Send(session.ClientEvent{Tag: session.TagCommands, Text: "open " + quoteArg(f)})
	}

	if !hasUI {
		runHeadlessClient(cc)
		return
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		die("could not set raw terminal mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	screen, err := tcell.NewScreen()
	if err != nil {
		die("could not initialize terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		die("could not initialize terminal: %v", err)
	}
	defer screen.Fini()

	w, h := screen.Size()
	cc.Send(session.ClientEvent{Tag: session.TagResize, Width: w, Height: h})

	go pollTcellEvents(screen, cc)

	for {
		select {
		case ev, ok := <-cc.Events():
			if !ok {
				return
			}
			switch ev.Tag {
			case session.TagDisplay:
				drawFrame(screen, render.DecodeFrame(ev.Frame))
			case session.TagStdoutOutput:
				os.Stdout.Write(ev.Stdout)
			case session.TagCommandOutput:
				fmt.Fprintln(os.Stderr, ev.CommandText)
			case session.TagRequest:
				// A request forwarded back to this client for local
				// handling; the core's request dispatch policy (what a
				// client does with it) is outside this module's scope.
			}
		case <-cc.Closed():
			return
		}
	}
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t\"'") {
		return "{" + s + "}"
	}
	return s
}

func pollTcellEvents(screen tcell.Screen, cc *session.ClientConn) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			w, h := ev.Size()
			cc.Send(session.ClientEvent{Tag: session.TagResize, Width: w, Height: h})
		case *tcell.EventKey:
			spec := tcellKeyToSpec(ev)
			if spec != "" {
				cc.Send(session.ClientEvent{Tag: session.TagKey, KeySpec: spec})
			}
		}
	}
}

// tcellKeyToSpec renders a tcell key event into the "<c-x>"/"<esc>"-style
// textual spec input.ParseKeys understands, keeping the wire protocol
// itself platform/backend-agnostic (spec.md §6's Key(target, key)
// carries a key spec string, not a tcell event).
func tcellKeyToSpec(ev *tcell.EventKey) string {
	mod := ""
	if ev.Modifiers()&tcell.ModCtrl != 0 {
		mod += "c-"
	}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		mod += "a-"
	}
	if ev.Modifiers()&tcell.ModShift != 0 {
		mod += "s-"
	}

	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if mod == "" {
			return string(r)
		}
		return fmt.Sprintf("<%s%c>", mod, r)
	}

	// Named keys are looked up first: tcell's Enter, Tab and Backspace
	// share their key codes with Ctrl-M, Ctrl-I and Ctrl-H.
	if name, ok := namedTcellKeys[ev.Key()]; ok {
		return fmt.Sprintf("<%s%s>", mod, name)
	}

	// tcell reports Ctrl-<letter> as its own contiguous Key range rather
	// than KeyRune+ModCtrl; fold it back into the "<c-x>" spec form.
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		letter := rune(int(ev.Key())-int(tcell.KeyCtrlA)) + 'a'
		return fmt.Sprintf("<c-%c>", letter)
	}
	return ""
}

var namedTcellKeys = map[tcell.Key]string{
	tcell.KeyBackspace:  "backspace",
	tcell.KeyBackspace2: "backspace",
	tcell.KeyEnter:      "enter",
	tcell.KeyLeft:       "left",
	tcell.KeyRight:      "right",
	tcell.KeyUp:         "up",
	tcell.KeyDown:       "down",
	tcell.KeyHome:       "home",
	tcell.KeyEnd:        "end",
	tcell.KeyPgUp:       "pageup",
	tcell.KeyPgDn:       "pagedown",
	tcell.KeyTab:        "tab",
	tcell.KeyDelete:     "delete",
	tcell.KeyEsc:        "esc",
}

// drawFrame blits a decoded render.Frame onto the local tcell screen,
// generalizing the teacher's Region.SetCell-driven draw loop to a frame
// that already carries its own styles (computed server-side).
func drawFrame(screen tcell.Screen, f *render.Frame) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			cell := f.At(x, y)
			screen.SetContent(x, y, cell.Ch, nil, cell.Style)
		}
	}
	if f.HasCursor {
		screen.ShowCursor(f.CursorX, f.CursorY)
	} else {
		screen.HideCursor()
	}
	screen.Show()
}

// runHeadlessClient implements --as-focused-client (or any attach with
// no controlling terminal): it forwards stdin bytes as StdinInput
// events and copies any StdoutOutput/CommandOutput back to the local
// stdout, with no tcell screen involved at all.
func runHeadlessClient(cc *session.ClientConn) {
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				cc.Send(session.ClientEvent{Tag: session.TagStdinInput, Bytes: chunk})
			}
			if err != nil {
				if err != io.EOF {
					die("stdin read error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-cc.Events():
			if !ok {
				return
			}
			switch ev.Tag {
			case session.TagStdoutOutput:
				os.Stdout.Write(ev.Stdout)
			case session.TagCommandOutput:
				fmt.Fprintln(os.Stdout, ev.CommandText)
			}
		case <-cc.Closed():
			return
		}
	}
}
