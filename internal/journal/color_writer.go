// ColorWriter prints human-friendly, colorized journey events to STDOUT.
package journal

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleMove       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDetection  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleEncounter  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	styleSalvage    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	styleEscape     = lipgloss.NewStyle().Foreground(lipgloss.Color("199")).Bold(true)
	styleExtraction = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	styleMIA        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleDefault    = lipgloss.NewStyle()
)

func styleFor(t EventType) lipgloss.Style {
	switch t {
	case EventMove:
		return styleMove
	case EventDetection:
		return styleDetection
	case EventEncounter:
		return styleEncounter
	case EventSalvage:
		return styleSalvage
	case EventEscape:
		return styleEscape
	case EventExtraction:
		return styleExtraction
	case EventMIA:
		return styleMIA
	default:
		return styleDefault
	}
}

// ColorWriter prints events with per-type colors for interactive use.
type ColorWriter struct {
	out io.Writer
}

// NewColorWriter creates a ColorWriter writing to os.Stdout.
func NewColorWriter() *ColorWriter {
	return &ColorWriter{out: os.Stdout}
}

// Write prints one styled event line.
func (w *ColorWriter) Write(row EventRow) error {
	line := fmt.Sprintf("%s  [%-10s] %s", row.Timestamp.Format("15:04:05"), row.Type, row.Detail)
	if row.Hex != "" {
		line += fmt.Sprintf("  (hex %s)", row.Hex)
	}
	line += fmt.Sprintf("  det=%.1f", row.Detection)
	_, err := fmt.Fprintln(w.out, styleFor(row.Type).Render(line))
	return err
}
