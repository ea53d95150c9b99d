package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return string([]rune(s)[:width])
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// nodeSymbol returns the wire symbol for a control, anti-control or swap leg.
func nodeSymbol(t Token) string {
	switch {
	case t.Kind == KindControl:
		return nodeStyle.Render("●")
	case t.Kind == KindAntiControl:
		return nodeStyle.Render("○")
	case t.IsSwap() && t.Invalid:
		return invalidStyle.Render("×")
	default:
		return nodeStyle.Render("×")
	}
}

// cellInfo describes what occupies a cell and which wires cross it.
type cellInfo struct {
	token       Token
	vertAbove   bool
	vertBelow   bool
	passThrough bool
	probe       string
}

// cellInfos builds the render description of every cell from the grid and
// its connectors.
func (m Model) cellInfos() [][]cellInfo {
	infos := make([][]cellInfo, m.circuit.NumQubits())
	width := m.circuit.NumColumns()
	for row := range infos {
		infos[row] = make([]cellInfo, width)
		for col := range width {
			infos[row][col].token = m.circuit.Grid.At(row, col)
		}
	}

	for _, cn := range m.circuit.Connectors() {
		for row := cn.Top; row <= cn.Bottom; row++ {
			info := &infos[row][cn.Col]
			if row > cn.Top {
				info.vertAbove = true
			}
			if row < cn.Bottom {
				info.vertBelow = true
			}
			if row > cn.Top && row < cn.Bottom && info.token.IsEmpty() {
				info.passThrough = true
			}
		}
	}

	for _, pv := range m.result.ProbedValues {
		if pv.Row < len(infos) && pv.Col < width {
			infos[pv.Row][pv.Col].probe = fmt.Sprintf("%.0f%%", pv.Value*100)
		}
	}
	return infos
}

// ──────────────────────────── Cell rendering ────────────────────────────

// gateBox renders a boxed label over a wire segment w columns wide.
func gateBox(label string, w int, render func(...string) string) (top, mid, bot string) {
	margin := (w - gateBoxW) / 2
	rightMargin := w - margin - gateBoxW
	top = strings.Repeat(" ", margin) + render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
	mid = strings.Repeat("─", margin) + render("┤"+padCenter(label, gateNameW)+"├") + strings.Repeat("─", rightMargin)
	bot = strings.Repeat(" ", margin) + render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
	return
}

// wireSegment renders the middle line of a cell, w columns wide.
func wireSegment(info cellInfo, w int) string {
	dashL := (w - 1) / 2
	dashR := w - dashL - 1
	t := info.token
	switch {
	case t.IsBarrier():
		return strings.Repeat("─", dashL) + barrierStyle.Render("┃") + strings.Repeat("─", dashR)
	case t.IsUnit():
		_, mid, _ := gateBox(t.String(), w, gateStyle.Render)
		return mid
	case t.Kind == KindProbe:
		_, mid, _ := gateBox(probeLabel(info), w, probeStyle.Render)
		return mid
	case t.IsNode() || t.IsSwap():
		return strings.Repeat("─", dashL) + nodeSymbol(t) + strings.Repeat("─", dashR)
	case info.passThrough:
		return strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
	default:
		return strings.Repeat("─", w)
	}
}

func probeLabel(info cellInfo) string {
	if info.probe != "" {
		return info.probe
	}
	return "M"
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW (11) visual characters wide.
func renderCell(info cellInfo, cursor bool) (top, mid, bot string) {
	if cursor {
		innerW := cellW - 2
		top = cursorBoxStyle.Render("╔" + strings.Repeat("═", innerW) + "╗")
		mid = cursorBoxStyle.Render("║") + wireSegment(info, innerW) + cursorBoxStyle.Render("║")
		bot = cursorBoxStyle.Render("╚" + strings.Repeat("═", innerW) + "╝")
		return
	}

	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	barRow := strings.Repeat(" ", halfW) + barrierStyle.Render("┃") + strings.Repeat(" ", cellW-halfW-1)

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}
	mid = wireSegment(info, cellW)

	t := info.token
	switch {
	case t.IsBarrier():
		top, bot = barRow, barRow
	case t.IsUnit():
		top, _, bot = gateBox(t.String(), cellW, gateStyle.Render)
	case t.Kind == KindProbe:
		top, _, bot = gateBox(probeLabel(info), cellW, probeStyle.Render)
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.circuit.Title))
	if m.savedID != "" {
		sb.WriteString(dimStyle.Render("  " + m.savedID))
	}
	sb.WriteString("\n\n")

	// How many columns fit
	availWidth := width - labelVisualW - 4
	maxCols := max(availWidth/cellW, 1)

	startCol := m.viewStartCol
	if m.cursorCol >= startCol+maxCols {
		startCol = m.cursorCol - maxCols + 1
	}
	endCol := min(startCol+maxCols, m.circuit.NumColumns())

	if startCol > 0 {
		fmt.Fprintf(&sb, "  ◀ showing columns %d–%d\n", startCol, endCol-1)
	}

	header := strings.Repeat(" ", labelVisualW)
	for col := startCol; col < endCol; col++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", col), cellW))
	}
	sb.WriteString(header + "\n")

	infos := m.cellInfos()
	for qubit := range m.circuit.NumQubits() {
		topLine := strings.Repeat(" ", labelVisualW)
		label := fmt.Sprintf("q[%d]", qubit)
		labelStyle := qubitLabelStyle
		if m.measure[qubit] {
			labelStyle = measuredLabelStyle
		}
		midLine := labelStyle.Render(fmt.Sprintf("%-5s", label)) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for col := startCol; col < endCol; col++ {
			cursor := col == m.cursorCol && qubit == m.cursorRow && m.focus != focusTitle && m.focus != focusDescription
			top, mid, bot := renderCell(infos[qubit][col], cursor)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	fmt.Fprintf(&sb, "\n  Position: Column %d, Qubit %d", m.cursorCol, m.cursorRow)
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderProbabilityPanel renders the measured distribution as bars, one per
// basis state of the measured qubits.
func (m Model) renderProbabilityPanel(width, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Probabilities"))
	sb.WriteString("\n\n")

	var measured []int
	for q := range m.circuit.NumQubits() {
		if m.measure[q] {
			measured = append(measured, q)
		}
	}

	switch {
	case m.result.Status == StatusError:
		sb.WriteString(invalidStyle.Render(m.result.Message))
	case len(measured) == 0:
		sb.WriteString(dimStyle.Render("Press m on a qubit to measure it"))
	case len(m.result.StateVector) != 1<<len(measured):
		sb.WriteString(dimStyle.Render("Simulating..."))
	default:
		for i, p := range m.result.StateVector {
			ket := fmt.Sprintf("|%0*b⟩", len(measured), i)
			filled := int(p*barW + 0.5)
			bar := barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barW-filled))
			fmt.Fprintf(&sb, "%s %s %5.1f%%\n", qubitLabelStyle.Render(ket), bar, p*100)
		}
	}

	return probStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Move qubit  ←→/hl Move column  +/- Qubits  m Measure")
	sb.WriteString("    ")
	sb.WriteString(activeGateStyle.Render("a"))
	sb.WriteString(" Add gate\n")

	sb.WriteString(activeGateStyle.Render("Actions:  "))
	sb.WriteString("Bksp Delete  t Title  d Description  ^R Clear  ^S Export  ^O Import  ^E QASM  ^W Save  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// spliceLineAt replaces the visible columns of bgLine starting at x with
// overlay, leaving escape sequences intact on both sides.
func spliceLineAt(bgLine, overlay string, x int) string {
	prefix := ansi.Truncate(bgLine, x, "")
	if pad := x - ansi.StringWidth(prefix); pad > 0 {
		prefix += strings.Repeat(" ", pad)
	}
	suffix := ansi.TruncateLeft(bgLine, x+ansi.StringWidth(overlay), "")
	return prefix + overlay + suffix
}
