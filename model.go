package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusMenu
	focusTitle
	focusDescription
	focusPath
)

// pathAction is what a confirmed path prompt does.
type pathAction int

const (
	pathExport pathAction = iota
	pathImport
	pathQASM
)

// simResultMsg carries a finished simulation back to the Update loop.
type simResultMsg struct {
	seq  uint64
	resp SimulateResponse
	err  error
}

// savedMsg reports the outcome of saving to the circuit library.
type savedMsg struct {
	id  string
	err error
}

// Model represents the TUI application state.
type Model struct {
	circuit      *Circuit
	measure      []bool
	cursorRow    int
	cursorCol    int
	viewStartCol int
	width        int
	height       int
	focus        focus
	statusMsg    string

	// Menu state
	menuCat  int
	menuItem int

	// Metadata editing
	titleInput textinput.Model
	descEditor textarea.Model
	pathInput  textinput.Model
	pathAction pathAction

	// Simulation state. simSeq is the sequence number of the latest request;
	// replies carrying an older number are stale and dropped.
	sim        Simulator
	simTimeout time.Duration
	simSeq     uint64
	result     SimulateResponse

	store   *Store
	savedID string
	logger  *log.Logger
}

func newModel(c *Circuit, sim Simulator, store *Store, logger *log.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "Circuit title"
	ti.CharLimit = 64

	ta := textarea.New()
	ta.Placeholder = "Describe the circuit..."
	ta.SetWidth(48)
	ta.SetHeight(6)
	ta.ShowLineNumbers = false

	pi := textinput.New()
	pi.Placeholder = "circuit.json"

	if logger == nil {
		logger = log.Default()
	}

	return Model{
		circuit:    c,
		measure:    make([]bool, MaxQubits),
		focus:      focusCircuit,
		titleInput: ti,
		descEditor: ta,
		pathInput:  pi,
		sim:        sim,
		simTimeout: 10 * time.Second,
		store:      store,
		logger:     logger,
	}
}

// simulateCmd runs one simulation in the background.
func simulateCmd(sim Simulator, req SimulateRequest, seq uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := sim.Simulate(ctx, req)
		return simResultMsg{seq: seq, resp: resp, err: err}
	}
}

// simulate snapshots the circuit and issues a new simulation request.
func (m *Model) simulate() tea.Cmd {
	if m.sim == nil {
		return nil
	}
	m.simSeq++
	return simulateCmd(m.sim, NewSimulateRequest(m.circuit, m.measure), m.simSeq, m.simTimeout)
}

// clampCursor keeps the cursor inside the grid after its shape changes.
func (m *Model) clampCursor() {
	m.cursorRow = min(max(m.cursorRow, 0), m.circuit.NumQubits()-1)
	m.cursorCol = min(max(m.cursorCol, 0), m.circuit.NumColumns()-1)
	m.viewStartCol = min(m.viewStartCol, m.cursorCol)
}

// edited is called after every circuit mutation.
func (m *Model) edited() tea.Cmd {
	m.clampCursor()
	return m.simulate()
}

// placeGate drops the token at the cursor.
func (m *Model) placeGate(t Token) tea.Cmd {
	if err := m.circuit.AddGate(m.cursorRow, m.cursorCol, t); err != nil {
		m.statusMsg = err.Error()
		return nil
	}
	m.logger.Debug("add gate", "gate", t, "row", m.cursorRow, "col", m.cursorCol)
	return m.edited()
}

// replaceCircuit swaps in a freshly imported or loaded circuit.
func (m *Model) replaceCircuit(c *Circuit) tea.Cmd {
	m.circuit = c
	m.savedID = ""
	return m.edited()
}

func (m *Model) openPath(action pathAction) tea.Cmd {
	m.pathAction = action
	switch action {
	case pathExport:
		m.pathInput.SetValue(m.circuit.Title + ".json")
	case pathQASM:
		m.pathInput.SetValue(m.circuit.Title + ".qasm")
	default:
		m.pathInput.SetValue("")
	}
	m.focus = focusPath
	return m.pathInput.Focus()
}

// runPath performs the import or export the path prompt was opened for.
func (m *Model) runPath(path string) tea.Cmd {
	switch m.pathAction {
	case pathExport:
		if err := m.circuit.ExportFile(path); err != nil {
			m.statusMsg = fmt.Sprintf("Export error: %v", err)
			return nil
		}
		m.statusMsg = "Circuit successfully exported"
	case pathQASM:
		qasm, err := m.circuit.ToQASM(m.measure)
		if err == nil {
			err = os.WriteFile(path, []byte(qasm), 0644)
		}
		if err != nil {
			m.statusMsg = fmt.Sprintf("QASM error: %v", err)
			return nil
		}
		m.statusMsg = "Wrote " + path
	case pathImport:
		c, err := ImportFile(path)
		if err != nil {
			m.logger.Warn("import failed", "path", path, "err", err)
			m.statusMsg = importMessage(err)
			return nil
		}
		m.statusMsg = "Circuit successfully imported"
		return m.replaceCircuit(c)
	}
	return nil
}

// importMessage turns an import failure into the user-facing alert text.
func importMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidQubits):
		return "Invalid number of qubits"
	case errors.Is(err, ErrInvalidGate):
		return "Invalid gate in circuit"
	case errors.Is(err, ErrInvalidDocument):
		return "Invalid JSON file"
	default:
		return fmt.Sprintf("Import error: %v", err)
	}
}

// saveCmd stores the circuit in the library.
func (m *Model) saveCmd() tea.Cmd {
	if m.store == nil {
		m.statusMsg = "No circuit library configured"
		return nil
	}
	store, id, snapshot := m.store, m.savedID, &Circuit{
		Title:       m.circuit.Title,
		Description: m.circuit.Description,
		Grid:        m.circuit.Grid.Clone(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := store.Save(ctx, id, snapshot)
		return savedMsg{id: id, err: err}
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	if m.sim == nil {
		return nil
	}
	return simulateCmd(m.sim, NewSimulateRequest(m.circuit, m.measure), m.simSeq, m.simTimeout)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.descEditor.SetWidth(max(msg.Width/2, 30))

	case simResultMsg:
		if msg.seq != m.simSeq {
			break
		}
		if msg.err != nil {
			m.logger.Error("simulation failed", "err", msg.err)
			m.result = SimulateResponse{Status: StatusError, Message: msg.err.Error()}
			break
		}
		m.result = msg.resp

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("save failed", "err", msg.err)
			m.statusMsg = fmt.Sprintf("Save error: %v", msg.err)
			break
		}
		m.savedID = msg.id
		m.statusMsg = "Saved as " + msg.id

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == focusCircuit {
			m.statusMsg = ""
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursorRow > 0 {
					m.cursorRow--
				}
			case "down", "j":
				if m.cursorRow < m.circuit.NumQubits()-1 {
					m.cursorRow++
				}
			case "left", "h":
				if m.cursorCol > 0 {
					m.cursorCol--
					if m.cursorCol < m.viewStartCol {
						m.viewStartCol = m.cursorCol
					}
				}
			case "right", "l":
				if m.cursorCol < m.circuit.NumColumns()-1 {
					m.cursorCol++
				}
			case "+", "=":
				m.circuit.AddQubitRow()
				cmds = append(cmds, m.edited())
			case "-":
				m.circuit.RemoveQubitRow()
				for q := m.circuit.NumQubits(); q < len(m.measure); q++ {
					m.measure[q] = false
				}
				cmds = append(cmds, m.edited())
			case "a", "enter":
				m.focus = focusMenu
			case "backspace", "delete":
				if err := m.circuit.RemoveGate(m.cursorRow, m.cursorCol); err != nil {
					m.statusMsg = err.Error()
					break
				}
				cmds = append(cmds, m.edited())
			case "m":
				m.measure[m.cursorRow] = !m.measure[m.cursorRow]
				cmds = append(cmds, m.simulate())
			case "ctrl+r":
				m.circuit.Clear()
				m.savedID = ""
				cmds = append(cmds, m.edited())
			case "t":
				m.titleInput.SetValue(m.circuit.Title)
				m.focus = focusTitle
				cmds = append(cmds, m.titleInput.Focus())
			case "d":
				m.descEditor.SetValue(m.circuit.Description)
				m.focus = focusDescription
				cmds = append(cmds, m.descEditor.Focus())
			case "ctrl+s":
				cmds = append(cmds, m.openPath(pathExport))
			case "ctrl+o":
				cmds = append(cmds, m.openPath(pathImport))
			case "ctrl+e":
				cmds = append(cmds, m.openPath(pathQASM))
			case "ctrl+w":
				cmds = append(cmds, m.saveCmd())
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(gateMenu[m.menuCat].items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				m.focus = focusCircuit
				cmds = append(cmds, m.placeGate(m.selectedItem().token))
			}

		case focusTitle:
			switch key {
			case "esc":
				m.titleInput.Blur()
				m.focus = focusCircuit
			case "enter":
				m.circuit.SetTitle(strings.TrimSpace(m.titleInput.Value()))
				m.titleInput.Blur()
				m.focus = focusCircuit
			default:
				var cmd tea.Cmd
				m.titleInput, cmd = m.titleInput.Update(msg)
				cmds = append(cmds, cmd)
			}

		case focusDescription:
			switch key {
			case "esc":
				m.descEditor.Blur()
				m.focus = focusCircuit
			case "ctrl+d":
				m.circuit.SetDescription(m.descEditor.Value())
				m.descEditor.Blur()
				m.focus = focusCircuit
			default:
				var cmd tea.Cmd
				m.descEditor, cmd = m.descEditor.Update(msg)
				cmds = append(cmds, cmd)
			}

		case focusPath:
			switch key {
			case "esc":
				m.pathInput.Blur()
				m.focus = focusCircuit
			case "enter":
				m.pathInput.Blur()
				m.focus = focusCircuit
				if path := strings.TrimSpace(m.pathInput.Value()); path != "" {
					cmds = append(cmds, m.runPath(path))
				}
			default:
				var cmd tea.Cmd
				m.pathInput, cmd = m.pathInput.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	probWidth := m.width / 3
	circuitWidth := m.width - probWidth - 4
	controlsHeight := 6
	circuitHeight := max(m.height-controlsHeight-2, 6)

	circuitPanel := m.renderCircuitPanel(circuitWidth, circuitHeight)
	probPanel := m.renderProbabilityPanel(probWidth, circuitHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, probPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusTitle:
		frame = overlayAt(frame, m.renderPrompt("Circuit Title", m.titleInput.View(), "⏎ Ok  Esc ✕"), 2, 2)
	case focusDescription:
		frame = overlayAt(frame, m.renderPrompt("Circuit Description", m.descEditor.View(), "^D Ok  Esc ✕"), 2, 2)
	case focusPath:
		label := map[pathAction]string{
			pathExport: "Export JSON",
			pathImport: "Import JSON",
			pathQASM:   "Export OpenQASM",
		}[m.pathAction]
		frame = overlayAt(frame, m.renderPrompt(label, m.pathInput.View(), "⏎ Ok  Esc ✕"), 2, 2)
	}

	return frame
}

// renderPrompt renders a bordered input overlay.
func (m Model) renderPrompt(title, body, hint string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render(hint))
	return menuBorderStyle.Render(sb.String())
}
