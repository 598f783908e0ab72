// Package tui renders a run interactively: the journey event log, a
// status bar, and key-driven resolution of encounter, salvage, and
// extraction prompts. It stands in for the game's map frontend.
package tui

import (
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"eremos-run/internal/detection"
	"eremos-run/internal/extraction"
	"eremos-run/internal/journal"
	"eremos-run/internal/journey"
	"eremos-run/internal/run"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// eventMsg carries one formatted journal line.
type eventMsg struct {
	line string
	row  journal.EventRow
}

// stateMsg carries a store notification.
type stateMsg struct{ run.Notification }

// refreshMsg is the periodic prompt/phase poll.
type refreshMsg struct{}

// TUI drives a bubbletea program and doubles as a journal writer, so
// the journey loop's events land in the viewport.
type TUI struct {
	program    teaProgram
	done       chan struct{}
	unsub      func()
	sendSignal atomic.Bool
}

// New starts the program and wires it to the run's store.
func New(store *run.Store, orc *journey.Orchestrator, det *detection.Manager, ext *extraction.Controller) *TUI {
	t := &TUI{done: make(chan struct{})}
	t.sendSignal.Store(true)

	m := newModel(store, orc, det, ext)
	p := tea.NewProgram(m, tea.WithAltScreen())
	t.program = p

	t.unsub = store.Subscribe(func(n run.Notification) {
		p.Send(stateMsg{n})
	})

	go func() {
		_, _ = p.Run()
		close(t.done)
		if t.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return t
}

// Write implements journal.Writer.
func (t *TUI) Write(row journal.EventRow) error {
	line := fmt.Sprintf("%s  [%-10s] %s", row.Timestamp.Format("15:04:05"), row.Type, row.Detail)
	if row.Hex != "" {
		line += fmt.Sprintf("  (hex %s)", row.Hex)
	}
	t.program.Send(eventMsg{line: line, row: row})
	return nil
}

// WriteBatch outputs multiple event rows.
func (t *TUI) WriteBatch(rows []journal.EventRow) error {
	for _, r := range rows {
		_ = t.Write(r)
	}
	return nil
}

// Close shuts the program down and waits for cleanup.
func (t *TUI) Close() error {
	t.sendSignal.Store(false)
	if t.unsub != nil {
		t.unsub()
	}
	if t.program != nil {
		t.program.Send(tea.Quit())
	}
	if t.done != nil {
		<-t.done
	}
	return nil
}
