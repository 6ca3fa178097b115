// Package process implements the child-process subsystem of spec.md
// §4.8: a recycled slot pool, spawning with optional piped stdin/stdout,
// and the split-on-byte / on-exit output substitution rules.
package process

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pepper-edit/pepper/internal/client"
)

// Index identifies a recycled slot in the Pool.
type Index int

// OutputEvent is handed back to the owning goroutine (the editor's main
// loop) over Pool.Events, carrying either a chunk of stdout or an exit
// notification. It is the "background thread hands a buffer to the main
// thread via a request queue" mechanism spec.md §5 requires.
type OutputEvent struct {
	Index   Index
	Chunk   []byte // nil on exit
	Exited  bool
	Success bool
}

type slot struct {
	alive         bool
	clientHandle  client.Handle
	hasClient     bool
	output        bytes.Buffer
	splitOnByte   byte
	hasSplitByte  bool
	outputVarName string
	onOutput      string
	cancel        context.CancelFunc
}

// Pool owns every spawned process slot, free slots recycled by index as
// described for CommandManager.spawned_processes in spec.md §3/§4.8.
type Pool struct {
	mu     sync.Mutex
	slots  []*slot
	events chan OutputEvent
}

// NewPool returns an empty process pool. events should be read by the
// single goroutine that owns editor state; it is closed never (the pool
// outlives individual processes).
func NewPool() *Pool {
	return &Pool{events: make(chan OutputEvent, 64)}
}

// Events returns the channel OutputEvents are delivered on.
func (p *Pool) Events() <-chan OutputEvent { return p.events }

// Spec describes one spawn request.
type Spec struct {
	Command       []string // argv[0], argv[1:]...
	Env           []string
	ClientHandle  client.Handle
	HasClient     bool
	Stdin         string // piped in full, eagerly, before spawn returns
	HasStdin      bool
	OutputVarName string
	OnOutput      string
	SplitOnByte   byte
	HasSplitByte  bool
}

// Spawn starts a process per spec, recycling the first dead slot (or
// growing the pool), and returns the slot index the caller should
// remember for Kill/inspection.
func (p *Pool) Spawn(spec Spec) (Index, error) {
	p.mu.Lock()
	idx := Index(-1)
	for i, s := range p.slots {
		if !s.alive {
			idx = Index(i)
			break
		}
	}
	if idx < 0 {
		idx = Index(len(p.slots))
		p.slots = append(p.slots, &slot{})
	}
	s := p.slots[idx]
	*s = slot{
		alive:         true,
		clientHandle:  spec.ClientHandle,
		hasClient:     spec.HasClient,
		splitOnByte:   spec.SplitOnByte,
		hasSplitByte:  spec.HasSplitByte,
		outputVarName: spec.OutputVarName,
		onOutput:      spec.OnOutput,
	}
	p.mu.Unlock()

	if len(spec.Command) == 0 {
		return idx, errEmptyCommand
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Env = spec.Env

	var stdoutPipe io.ReadCloser
	var err error
	if spec.OnOutput != "" {
		stdoutPipe, err = cmd.StdoutPipe()
		if err != nil {
			cancel()
			return idx, err
		}
	}
	if spec.HasStdin {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return idx, err
	}

	p.mu.Lock()
	s.cancel = cancel
	p.mu.Unlock()

	// Wait closes the stdout pipe, so it runs only after the reader has
	// hit EOF; every chunk event is therefore sent before the exit event.
	readDone := make(chan struct{})
	if stdoutPipe != nil {
		go func() {
			p.readLoop(idx, stdoutPipe)
			close(readDone)
		}()
	} else {
		close(readDone)
	}
	go func() {
		<-readDone
		err := cmd.Wait()
		p.events <- OutputEvent{Index: idx, Exited: true, Success: err == nil}
	}()

	return idx, nil
}

func (p *Pool) readLoop(idx Index, r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.events <- OutputEvent{Index: idx, Chunk: chunk}
		}
		if err != nil {
			return
		}
	}
}

// ClientOf reports the client handle a slot was spawned for, so a caller
// can route status-bar errors (e.g. the non-UTF-8 exit case) to the
// right client before the slot's bookkeeping is consulted any further.
func (p *Pool) ClientOf(idx Index) (clientHandle client.Handle, hasClient bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(idx) < 0 || int(idx) >= len(p.slots) {
		return 0, false
	}
	s := p.slots[idx]
	return s.clientHandle, s.hasClient
}

// Kill cancels a live process, if any.
func (p *Pool) Kill(idx Index) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(idx) < 0 || int(idx) >= len(p.slots) {
		return
	}
	s := p.slots[idx]
	if s.alive && s.cancel != nil {
		s.cancel()
	}
}

// OnOutputChunk appends bytes to the slot's accumulator and returns the
// client/command-substitution work the caller should perform: if a
// split byte is configured, every complete, non-empty, valid-UTF-8 slice
// up to each occurrence becomes a command to evaluate; trailing bytes
// after the last split remain buffered for the next call.
func (p *Pool) OnOutputChunk(idx Index, chunk []byte) (commands []string, clientHandle client.Handle, hasClient bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(idx) < 0 || int(idx) >= len(p.slots) {
		return nil, 0, false
	}
	s := p.slots[idx]
	if s.onOutput == "" {
		return nil, 0, false
	}
	s.output.Write(chunk)
	clientHandle, hasClient = s.clientHandle, s.hasClient
	if !s.hasSplitByte {
		return nil, clientHandle, hasClient
	}

	data := s.output.Bytes()
	consumed := 0
	for {
		rest := data[consumed:]
		i := bytes.IndexByte(rest, s.splitOnByte)
		if i < 0 {
			break
		}
		piece := rest[:i]
		consumed += i + 1
		if len(piece) == 0 || !utf8.Valid(piece) {
			continue
		}
		commands = append(commands, substituteVar(s.onOutput, s.outputVarName, string(piece)))
	}
	remaining := append([]byte(nil), data[consumed:]...)
	s.output.Reset()
	s.output.Write(remaining)
	return commands, clientHandle, hasClient
}

// OnExit finalizes a dead slot: if no split byte was configured and the
// process exited successfully with buffered output, the whole
// accumulator is substituted once into the template. The slot's alive
// flag is cleared regardless. Per spec.md §4.8, the accumulator must be
// valid UTF-8 to be substituted; if it isn't, invalidUTF8 is reported so
// the caller can surface an error to the status bar instead of running a
// command built from unrepresentable bytes.
func (p *Pool) OnExit(idx Index, success bool) (command string, ok, invalidUTF8 bool, clientHandle client.Handle, hasClient bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(idx) < 0 || int(idx) >= len(p.slots) {
		return "", false, false, 0, false
	}
	s := p.slots[idx]
	s.alive = false
	clientHandle, hasClient = s.clientHandle, s.hasClient
	if !success || s.onOutput == "" || s.hasSplitByte || s.output.Len() == 0 {
		return "", false, false, clientHandle, hasClient
	}
	if !utf8.Valid(s.output.Bytes()) {
		return "", false, true, clientHandle, hasClient
	}
	command = substituteVar(s.onOutput, s.outputVarName, s.output.String())
	return command, true, false, clientHandle, hasClient
}

// substituteVar textually substitutes {varName} for value in template.
// The brace-delimited spelling is only the authoring syntax; the actual
// swap is routed through a NUL-delimited marker that cannot occur in a
// well-formed token (spec.md §9), the same scheme internal/command uses
// for macro parameters, so a value containing a literal "{varName}" can
// never be mistaken for a second occurrence to substitute.
func substituteVar(template, varName, value string) string {
	if varName == "" {
		return template
	}
	marker := "\x00" + varName + "\x00"
	template = strings.ReplaceAll(template, "{"+varName+"}", marker)
	return strings.ReplaceAll(template, marker, value)
}

var errEmptyCommand = errEmpty{}

type errEmpty struct{}

func (errEmpty) Error() string { return "empty process command" }
