package mode

import (
	"strings"

	"github.com/pepper-edit/pepper/internal/input"
	"github.com/pepper-edit/pepper/internal/statusbar"
)

// CommandLine accumulates a line of text and, on Enter, evaluates it
// through the command manager, writing its output (or error display) to
// the status bar before returning to Normal.
type CommandLine struct {
	ctx *Context

	line      []rune
	cursor    int
	histIndex int
}

// NewCommandLine returns a CommandLine mode with an empty line, entered
// via the ':' key in Normal mode.
func NewCommandLine(ctx *Context) *CommandLine {
	return &CommandLine{ctx: ctx, histIndex: ctx.Commands.History().Len()}
}

var _ input.Mode = (*CommandLine)(nil)

func (m *CommandLine) OnKeys(cursor *input.Cursor) input.Control {
	k, ok := cursor.Peek()
	if !ok {
		return input.ControlPending
	}
	cursor.Advance(1)

	switch {
	case k.Code == input.KeyEsc:
		m.ctx.SetMode(New(m.ctx))
		return input.ControlContinue

	case k.Code == input.KeyEnter:
		m.submit()
		m.ctx.SetMode(New(m.ctx))
		return input.ControlContinue

	case k.Code == input.KeyBackspace:
		if m.cursor > 0 {
			m.line = append(m.line[:m.cursor-1], m.line[m.cursor:]...)
			m.cursor--
		}
		return input.ControlContinue

	case k.Code == input.KeyLeft:
		if m.cursor > 0 {
			m.cursor--
		}
		return input.ControlContinue
	case k.Code == input.KeyRight:
		if m.cursor < len(m.line) {
			m.cursor++
		}
		return input.ControlContinue

	case k.Code == input.KeyUp:
		m.recall(-1)
		return input.ControlContinue
	case k.Code == input.KeyDown:
		m.recall(1)
		return input.ControlContinue
	}

	if r, ok := k.Rune(); ok {
		m.line = append(m.line[:m.cursor], append([]rune{r}, m.line[m.cursor:]...)...)
		m.cursor++
	}
	return input.ControlContinue
}

// Text returns the command line's current contents, for rendering.
func (m *CommandLine) Text() string { return string(m.line) }

// Cursor returns the line-relative cursor column, for rendering.
func (m *CommandLine) Cursor() int { return m.cursor }

func (m *CommandLine) recall(delta int) {
	h := m.ctx.Commands.History()
	next := m.histIndex + delta
	if next < 0 || next > h.Len() {
		return
	}
	m.histIndex = next
	if next == h.Len() {
		m.line = nil
		m.cursor = 0
		return
	}
	entry, ok := h.At(next)
	if !ok {
		return
	}
	m.line = []rune(entry)
	m.cursor = len(m.line)
}

func (m *CommandLine) submit() {
	line := strings.TrimSpace(string(m.line))
	if line == "" {
		return
	}
	ctx := m.ctx.newCommandContext()
	_, err := m.ctx.Commands.EvalScript(ctx, line)
	if err != nil {
		m.ctx.StatusBar.Write(statusbar.Error).Str(err.Display(line, ctx.SourcePath))
		return
	}
	if ctx.Output.Len() > 0 {
		m.ctx.StatusBar.Write(statusbar.Info).Str(ctx.Output.String())
	}
}
