package process

import (
	"testing"
	"time"

	"github.com/pepper-edit/pepper/internal/client"
)

func drainExit(t *testing.T, p *Pool, idx Index) bool {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-p.Events():
			if ev.Index == idx && ev.Chunk != nil {
				p.OnOutputChunk(idx, ev.Chunk)
			}
			if ev.Index == idx && ev.Exited {
				return ev.Success
			}
		case <-deadline:
			t.Fatal("timed out waiting for process exit event")
		}
	}
}

func TestPool_OnExitSubstitutesWholeBufferWhenNoSplitByte(t *testing.T) {
	p := NewPool()
	idx, err := p.Spawn(Spec{
		Command:       []string{"echo", "-n", "hello"},
		OnOutput:      "print got: {output}",
		OutputVarName: "output",
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	success := drainExit(t, p, idx)
	if !success {
		t.Fatal("expected process to exit successfully")
	}

	// OnOutputChunk must have been fed every stdout chunk by the caller
	// (the pool doesn't do this on its own) before OnExit is meaningful;
	// drain any buffered chunks first.
	drainChunks(p, idx)

	cmd, ok, invalidUTF8, _, _ := p.OnExit(idx, success)
	if !ok {
		t.Fatal("expected a substituted command")
	}
	if invalidUTF8 {
		t.Fatal("expected valid UTF-8 output")
	}
	if cmd != "print got: hello" {
		t.Fatalf("got %q, want %q", cmd, "print got: hello")
	}
}

func TestPool_OnExitReportsInvalidUTF8(t *testing.T) {
	p := NewPool()
	idx, err := p.Spawn(Spec{
		Command:       []string{"printf", "\\xff\\xfe"},
		OnOutput:      "print got: {output}",
		OutputVarName: "output",
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	success := drainExit(t, p, idx)
	drainChunks(p, idx)

	_, ok, invalidUTF8, _, _ := p.OnExit(idx, success)
	if ok {
		t.Fatal("expected no substituted command for non-UTF-8 output")
	}
	if !invalidUTF8 {
		t.Fatal("expected invalidUTF8 to be reported")
	}
}

func drainChunks(p *Pool, idx Index) {
	for {
		select {
		case ev := <-p.Events():
			if ev.Chunk != nil {
				p.OnOutputChunk(idx, ev.Chunk)
			}
		default:
			return
		}
	}
}

func TestPool_OnOutputChunkSplitsOnByte(t *testing.T) {
	p := NewPool()
	idx, err := p.Spawn(Spec{
		Command:       []string{"true"},
		OnOutput:      "print line: {line}",
		OutputVarName: "line",
		SplitOnByte:   '\n',
		HasSplitByte:  true,
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	drainExit(t, p, idx)

	commands, handle, hasClient := p.OnOutputChunk(idx, []byte("first\nsecond\nthird"))
	if hasClient {
		t.Fatalf("unexpected client handle %v", handle)
	}
	want := []string{"print line: first", "print line: second"}
	if len(commands) != len(want) {
		t.Fatalf("got %d commands %v, want %d %v", len(commands), commands, len(want), want)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Errorf("command %d: got %q want %q", i, commands[i], want[i])
		}
	}

	more, _, _ := p.OnOutputChunk(idx, []byte("-more\n"))
	if len(more) != 1 || more[0] != "print line: third-more" {
		t.Fatalf("got %v, want trailing bytes joined with the next chunk", more)
	}
}

func TestPool_OnOutputChunkIgnoresUnconfiguredSlot(t *testing.T) {
	p := NewPool()
	idx, err := p.Spawn(Spec{Command: []string{"true"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	drainExit(t, p, idx)

	commands, _, hasClient := p.OnOutputChunk(idx, []byte("ignored\n"))
	if commands != nil || hasClient {
		t.Fatalf("expected no-op for a slot with no OnOutput template")
	}
}

func TestPool_SpawnRecyclesDeadSlot(t *testing.T) {
	p := NewPool()
	idx1, err := p.Spawn(Spec{Command: []string{"true"}})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	success := drainExit(t, p, idx1)
	p.OnExit(idx1, success) // marks the slot dead

	idx2, err := p.Spawn(Spec{Command: []string{"true"}, ClientHandle: client.Handle(7), HasClient: true})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if idx2 != idx1 {
		t.Fatalf("got new slot %v, want the recycled slot %v", idx2, idx1)
	}
	drainExit(t, p, idx2)
}
