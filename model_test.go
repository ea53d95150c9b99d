package main

import (
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

func testModel() Model {
	m := newModel(NewCircuit(3), LocalSimulator{}, nil, newLogger(io.Discard, log.InfoLevel))
	m.width, m.height = 160, 48
	return m
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyBksp  = tea.KeyMsg{Type: tea.KeyBackspace}
)

func TestModelPlaceGateFromMenu(t *testing.T) {
	m := testModel()
	m = press(t, m, runes("a"))
	if m.focus != focusMenu {
		t.Fatalf("focus = %v, want menu", m.focus)
	}

	// Nodes tab, second entry: anti-control.
	m = press(t, m, keyRight, keyDown, keyEnter)
	if m.focus != focusCircuit {
		t.Errorf("menu did not close")
	}
	if got := m.circuit.Grid[0][0]; got != AntiControl {
		t.Errorf("placed %s, want ac", got)
	}
	if m.simSeq != 1 {
		t.Errorf("simSeq = %d, want 1 after one edit", m.simSeq)
	}
}

func TestModelRemoveGate(t *testing.T) {
	m := testModel()
	mustAdd(t, m.circuit, 0, 0, GateH)
	m = press(t, m, keyBksp)
	if !m.circuit.Grid[0][0].IsEmpty() {
		t.Errorf("gate not removed\n%s", m.circuit)
	}
}

func TestModelDropsStaleSimulation(t *testing.T) {
	m := testModel()
	m = press(t, m, runes("m"), runes("m"))
	if m.simSeq != 2 {
		t.Fatalf("simSeq = %d, want 2", m.simSeq)
	}

	stale := simResultMsg{seq: 1, resp: SimulateResponse{Status: StatusOK, StateVector: []float64{0, 1}}}
	next, _ := m.Update(stale)
	m = next.(Model)
	if m.result.StateVector != nil {
		t.Fatalf("stale response applied: %v", m.result.StateVector)
	}

	fresh := simResultMsg{seq: 2, resp: SimulateResponse{Status: StatusOK, StateVector: []float64{1}}}
	next, _ = m.Update(fresh)
	m = next.(Model)
	if len(m.result.StateVector) != 1 {
		t.Errorf("fresh response dropped")
	}
}

func TestSimulateCmd(t *testing.T) {
	c := NewCircuit(3)
	mustAdd(t, c, 0, 0, GateX)
	msg := simulateCmd(LocalSimulator{}, NewSimulateRequest(c, []bool{true}), 7, time.Second)()

	res, ok := msg.(simResultMsg)
	if !ok {
		t.Fatalf("got %T, want simResultMsg", msg)
	}
	if res.seq != 7 || res.err != nil {
		t.Fatalf("seq %d err %v", res.seq, res.err)
	}
	if len(res.resp.StateVector) != 2 || res.resp.StateVector[1] < 0.999 {
		t.Errorf("unexpected distribution %v", res.resp.StateVector)
	}
}

func TestModelCursorClampedAfterRowRemoval(t *testing.T) {
	m := testModel()
	m = press(t, m, runes("+"))
	if m.circuit.NumQubits() != 4 {
		t.Fatalf("got %d qubits, want 4", m.circuit.NumQubits())
	}
	m = press(t, m, keyDown, keyDown, keyDown, runes("m"))
	if m.cursorRow != 3 || !m.measure[3] {
		t.Fatalf("cursor %d, measure %v", m.cursorRow, m.measure[:4])
	}

	m = press(t, m, runes("-"))
	if m.cursorRow != 2 {
		t.Errorf("cursorRow = %d, want 2", m.cursorRow)
	}
	if m.measure[3] {
		t.Errorf("removed row is still measured")
	}
}

func TestModelEditTitle(t *testing.T) {
	m := testModel()
	m = press(t, m, runes("t"))
	if m.focus != focusTitle {
		t.Fatalf("focus = %v, want title", m.focus)
	}
	m.titleInput.SetValue("teleport")
	m = press(t, m, keyEnter)
	if m.circuit.Title != "teleport" || m.focus != focusCircuit {
		t.Errorf("title %q, focus %v", m.circuit.Title, m.focus)
	}

	m = press(t, m, runes("t"))
	m.titleInput.SetValue("discarded")
	m = press(t, m, keyEsc)
	if m.circuit.Title != "teleport" {
		t.Errorf("esc kept edit: %q", m.circuit.Title)
	}
}

func TestModelClear(t *testing.T) {
	m := testModel()
	mustAdd(t, m.circuit, 1, 0, GateH)
	m.circuit.SetTitle("x")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.circuit.NumColumns() != 1 || m.circuit.Title != defaultTitle {
		t.Errorf("circuit not cleared\n%s", m.circuit)
	}
}

func TestImportMessage(t *testing.T) {
	_, err := ImportCircuit([]byte(`{"qubits":100,"gates":[],"title":"t","description":"d"}`))
	if got := importMessage(err); got != "Invalid number of qubits" {
		t.Errorf("got %q", got)
	}
	_, err = ImportCircuit([]byte(`[]`))
	if got := importMessage(err); got != "Invalid JSON file" {
		t.Errorf("got %q", got)
	}
}

func TestViewRenders(t *testing.T) {
	m := testModel()
	mustAdd(t, m.circuit, 0, 0, Control)
	mustAdd(t, m.circuit, 2, 0, GateX)
	mustAdd(t, m.circuit, 1, 1, Probe)
	m.measure[0] = true
	m.result = SimulateResponse{
		Status:       StatusOK,
		StateVector:  []float64{1, 0},
		ProbedValues: []ProbeValue{{Row: 1, Col: 1, Value: 0}},
	}

	if out := m.View(); out == "" || out == "Loading..." {
		t.Fatalf("empty view")
	}
	m = press(t, m, runes("a"))
	if out := m.View(); lipgloss.Width(out) == 0 {
		t.Fatalf("empty menu view")
	}
}

func TestCellInfosConnectors(t *testing.T) {
	m := testModel()
	mustAdd(t, m.circuit, 0, 0, Control)
	mustAdd(t, m.circuit, 2, 0, GateX)

	infos := m.cellInfos()
	if infos[0][0].vertAbove || !infos[0][0].vertBelow {
		t.Errorf("top of connector: %+v", infos[0][0])
	}
	if !infos[1][0].passThrough || !infos[1][0].vertAbove || !infos[1][0].vertBelow {
		t.Errorf("middle of connector: %+v", infos[1][0])
	}
	if !infos[2][0].vertAbove || infos[2][0].vertBelow {
		t.Errorf("bottom of connector: %+v", infos[2][0])
	}
}

func TestSpliceLineAt(t *testing.T) {
	tests := []struct {
		bg, overlay string
		x           int
		want        string
	}{
		{"abcdef", "XY", 2, "abXYef"},
		{"abcdef", "XY", 0, "XYcdef"},
		{"ab", "X", 4, "ab  X"},
	}
	for _, tt := range tests {
		if got := spliceLineAt(tt.bg, tt.overlay, tt.x); got != tt.want {
			t.Errorf("spliceLineAt(%q, %q, %d) = %q, want %q", tt.bg, tt.overlay, tt.x, got, tt.want)
		}
	}
}
