package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"eremos-run/internal/detection"
	"eremos-run/internal/extraction"
	"eremos-run/internal/hexmap"
	"eremos-run/internal/journey"
	"eremos-run/internal/run"
)

const maxLogLines = 1000

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type model struct {
	store *run.Store
	orc   *journey.Orchestrator
	det   *detection.Manager
	ext   *extraction.Controller

	vp         viewport.Model
	input      textinput.Model
	inputOpen  bool
	logs       []string
	wrap       bool
	autoscroll bool
	width      int
	height     int

	state  run.State
	active bool
	phase  journey.Phase
	prompt *journey.Prompt
}

func newModel(store *run.Store, orc *journey.Orchestrator, det *detection.Manager, ext *extraction.Controller) model {
	m := model{
		store:      store,
		orc:        orc,
		det:        det,
		ext:        ext,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		phase:      journey.PhaseIdle,
	}
	if st, ok := store.State(); ok {
		m.state = st
		m.active = true
	}
	return m
}

func refreshTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m model) Init() tea.Cmd { return refreshTick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.resize()
		m.refreshViewport()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case stateMsg:
		m.state = msg.State
		m.active = msg.Type != run.MutationCleared
	case refreshMsg:
		m.phase = m.orc.Phase()
		if p, ok := m.orc.Pending(); ok {
			m.prompt = &p
		} else {
			m.prompt = nil
		}
		return m, refreshTick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputOpen {
		switch msg.Type {
		case tea.KeyEnter:
			var q, r int
			if _, err := fmt.Sscanf(m.input.Value(), "%d,%d", &q, &r); err == nil {
				go m.orc.AddWaypoint(hexmap.Axial{Q: q, R: r})
			}
			m.inputOpen = false
			m.resize()
		case tea.KeyEsc:
			m.inputOpen = false
			m.resize()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Prompt keys take precedence while a resolution is outstanding.
	if m.prompt != nil {
		if handled := m.handlePromptKey(msg.String()); handled {
			return m, nil
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "t":
		m.input = textinput.New()
		m.input.Placeholder = "q,r"
		m.input.Focus()
		m.inputOpen = true
		m.resize()
	case "d":
		if n := len(m.orc.Waypoints()); n > 0 {
			go m.orc.RemoveWaypoint(n - 1)
		}
	case "c":
		m.orc.ClearAllWaypoints()
	case "g", "enter":
		go m.orc.CommenceJourney()
	case "p":
		m.orc.TogglePause()
	case "S":
		m.orc.StopMovement()
	case "E":
		go m.ext.CompleteExtraction(nil)
	case "B":
		go m.ext.InitiateExtractionWithItem(true)
	case "A":
		go m.orc.Abandon()
	case "i":
		go m.det.UseDampener()
	case "w":
		m.wrap = !m.wrap
		m.refreshViewport()
	case "s":
		m.autoscroll = !m.autoscroll
		if m.autoscroll {
			m.vp.GotoBottom()
		}
	case "j", "down":
		m.vp.LineDown(1)
	case "k", "up":
		m.vp.LineUp(1)
	}
	return m, nil
}

// handlePromptKey answers the outstanding prompt. Resolution calls run
// off the UI goroutine; the next refresh tick picks up the result.
func (m model) handlePromptKey(key string) bool {
	p := m.prompt
	switch p.Kind {
	case journey.PromptEncounter:
		switch key {
		case "f":
			go m.orc.ResumeEncounterProceed(p.Token)
		case "e":
			go m.orc.ResumeEncounterEscape(p.Token)
		case "v":
			go m.orc.ResumeEncounterEvade(p.Token)
		default:
			return false
		}
		return true
	case journey.PromptSalvage:
		switch key {
		case "r":
			go m.orc.SalvageAttempt(p.Token)
		case "b":
			go m.orc.SalvageEngage(p.Token)
		case "l":
			go m.orc.SalvageLeave(p.Token)
		case "x":
			go m.orc.SalvageQuit(p.Token)
		default:
			return false
		}
		return true
	}
	return false
}

func (m *model) resize() {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter()) - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
}

func (m *model) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m model) renderHeader() string {
	title := titleStyle.Render("into the eremos")
	if !m.active {
		return title + "  " + alertStyle.Render("run over: "+string(m.state.Outcome))
	}
	status := fmt.Sprintf("run %s  tier %d  pos %s  det %.1f  loot %d  dampeners %d  %s",
		m.state.ID, m.state.Tier, m.state.PlayerPosition.String(),
		m.state.Detection, len(m.state.CollectedLoot), m.state.DampenersLeft, m.phase)
	return title + "\n" + statusStyle.Render(status)
}

func (m model) renderFooter() string {
	if m.inputOpen {
		return "waypoint: " + m.input.View()
	}
	if m.prompt != nil {
		switch m.prompt.Kind {
		case journey.PromptEncounter:
			label := "encounter"
			if m.prompt.Encounter != nil && m.prompt.Encounter.AIID != "" {
				label = "encounter: " + m.prompt.Encounter.AIID
			}
			return promptStyle.Render(label) + helpStyle.Render("  [f]ight  [e]scape  e[v]ade")
		case journey.PromptSalvage:
			label := "salvage"
			if m.prompt.Salvage != nil {
				label = fmt.Sprintf("salvage %d/%d", m.prompt.Salvage.RevealedCount(), m.prompt.Salvage.TotalSlots)
				if m.prompt.Salvage.EncounterTriggered {
					label += alertStyle.Render("  combat!")
				}
			}
			return promptStyle.Render(label) + helpStyle.Render("  [r]eveal  [b]attle  [l]eave  [x] quit")
		}
	}
	return helpStyle.Render("[t] waypoint  [d] drop  [c] clear  [g] go  [p] pause  [S] stop  [E] extract  [B] bypass  [i] dampener  [A] abandon  [q] quit")
}

func (m model) View() string {
	divider := strings.Repeat("─", max(m.width, 1))
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.vp.View(),
		divider,
		m.renderFooter(),
	}, "\n")
}
