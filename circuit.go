package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Qubit bounds for a circuit.
const (
	MinQubits = 3
	MaxQubits = 9
)

// Placeholders used for a fresh or cleared circuit.
const (
	defaultTitle       = "Circuit Name"
	defaultDescription = "Circuit Description"
)

var (
	ErrOutOfRange = errors.New("cell out of range")
	ErrEmptyToken = errors.New("cannot place an empty token")
)

// Grid is the qubit × column matrix of gate tokens. Row i is qubit i.
type Grid [][]Token

// newGrid returns qubits rows holding a single empty cell each.
func newGrid(qubits int) Grid {
	g := make(Grid, qubits)
	for i := range g {
		g[i] = []Token{Empty}
	}
	return g
}

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		w = max(w, len(row))
	}
	return w
}

// At returns the token at (row, col); cells past the end of a short row are empty.
func (g Grid) At(row, col int) Token {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Empty
	}
	return g[row][col]
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = slices.Clone(row)
	}
	return out
}

// insertColumn inserts one cell at col in every row, taking the cell for each
// row from fill. Rows shorter than col are padded with empty cells first.
func (g Grid) insertColumn(col int, fill func(row int) Token) {
	for i := range g {
		for len(g[i]) < col {
			g[i] = append(g[i], Empty)
		}
		g[i] = slices.Insert(g[i], col, fill(i))
	}
}

// shiftFrom moves every cell at or after col one position right in every row,
// leaving an empty cell at col. Column alignment between rows is preserved.
func (g Grid) shiftFrom(col int) {
	g.insertColumn(col, func(int) Token { return Empty })
}

// deleteColumn removes col from every row that reaches it.
func (g Grid) deleteColumn(col int) {
	for i := range g {
		if col < len(g[i]) {
			g[i] = slices.Delete(g[i], col, col+1)
		}
	}
}

// columnEmpty reports whether no row holds a gate at col.
func (g Grid) columnEmpty(col int) bool {
	for i := range g {
		if !g.At(i, col).IsEmpty() {
			return false
		}
	}
	return true
}

// Circuit is one editing session's circuit: a grid of gates plus its metadata.
type Circuit struct {
	Title       string
	Description string
	Grid        Grid
}

// NewCircuit creates a circuit with qubits empty rows, clamped to the
// supported qubit range.
func NewCircuit(qubits int) *Circuit {
	qubits = min(max(qubits, MinQubits), MaxQubits)
	return &Circuit{
		Title:       defaultTitle,
		Description: defaultDescription,
		Grid:        newGrid(qubits),
	}
}

// NumQubits returns the number of qubit rows.
func (c *Circuit) NumQubits() int {
	return len(c.Grid)
}

// NumColumns returns the number of columns, including the trailing empty one.
func (c *Circuit) NumColumns() int {
	return c.Grid.Width()
}

// AddQubitRow appends an empty qubit row. It does nothing at MaxQubits.
func (c *Circuit) AddQubitRow() {
	if c.NumQubits() >= MaxQubits {
		return
	}
	c.Grid = append(c.Grid, []Token{Empty})
	c.NormalizeEmptySpace()
	c.ExtendBarriers()
}

// RemoveQubitRow drops the last qubit row. It does nothing at MinQubits.
func (c *Circuit) RemoveQubitRow() {
	if c.NumQubits() <= MinQubits {
		return
	}
	c.Grid = c.Grid[:len(c.Grid)-1]
	c.ValidateCircuit()
	c.NormalizeEmptySpace()
}

func (c *Circuit) checkCell(row, col int) error {
	if row < 0 || row >= c.NumQubits() || col < 0 || col >= len(c.Grid[row]) {
		return fmt.Errorf("(%d, %d): %w", row, col, ErrOutOfRange)
	}
	return nil
}

// AddGate places t at (row, col). A barrier is inserted across the whole
// column regardless of row. If the target cell is occupied, every row is
// pushed one column right from col before the gate is placed.
func (c *Circuit) AddGate(row, col int, t Token) error {
	if t.IsEmpty() {
		return ErrEmptyToken
	}
	if err := c.checkCell(row, col); err != nil {
		return err
	}
	if t.IsBarrier() {
		c.InsertBarrier(col)
		return nil
	}

	if !c.Grid[row][col].IsEmpty() {
		c.Grid.shiftFrom(col)
	}

	c.Grid[row][col] = t
	if last := len(c.Grid[row]) - 1; !c.Grid[row][last].IsEmpty() {
		c.Grid[row] = append(c.Grid[row], Empty)
	}

	c.NormalizeEmptySpace()
	c.ValidateCircuit()
	return nil
}

// InsertBarrier inserts a barrier at col in every row. col is clamped so the
// barrier always lands before the trailing empty column.
func (c *Circuit) InsertBarrier(col int) {
	col = min(max(col, 0), c.NumColumns()-1)
	c.Grid.insertColumn(col, func(int) Token { return Barrier })
}

// RemoveGate clears (row, col). Removing a barrier removes its whole column.
func (c *Circuit) RemoveGate(row, col int) error {
	if err := c.checkCell(row, col); err != nil {
		return err
	}
	if c.Grid[row][col].IsBarrier() {
		c.Grid.deleteColumn(col)
	} else {
		c.Grid[row][col] = Empty
	}

	// Swap counts are read before empty columns are compacted away.
	c.ValidateCircuit()
	c.NormalizeEmptySpace()
	return nil
}

// NormalizeEmptySpace removes every all-empty column, then pads all rows to
// one past the longest row so each row ends in exactly one shared empty column.
func (c *Circuit) NormalizeEmptySpace() {
	for col := 0; col < c.Grid.Width(); {
		if c.Grid.columnEmpty(col) {
			c.Grid.deleteColumn(col)
			continue
		}
		col++
	}

	maxLength := c.Grid.Width() + 1
	for i := range c.Grid {
		for len(c.Grid[i]) < maxLength {
			c.Grid[i] = append(c.Grid[i], Empty)
		}
	}
}

// ExtendBarriers fills every empty cell of a barrier column with a barrier.
// Occupied cells are left alone.
func (c *Circuit) ExtendBarriers() {
	for col := range c.Grid.Width() {
		barrier := false
		for row := range c.Grid {
			if c.Grid.At(row, col).IsBarrier() {
				barrier = true
				break
			}
		}
		if !barrier {
			continue
		}
		for row := range c.Grid {
			if col < len(c.Grid[row]) && c.Grid[row][col].IsEmpty() {
				c.Grid[row][col] = Barrier
			}
		}
	}
}

// ValidateCircuit tags swap legs: a column with exactly two legs holds valid
// swaps, any other count marks all of its legs invalid.
func (c *Circuit) ValidateCircuit() {
	for col := range c.Grid.Width() {
		var legs []int
		for row := range c.Grid {
			if c.Grid.At(row, col).IsSwap() {
				legs = append(legs, row)
			}
		}
		valid := len(legs) == 2
		for _, row := range legs {
			c.Grid[row][col] = Token{Kind: KindSwap, Invalid: !valid}
		}
	}
}

// Cell is a grid coordinate.
type Cell struct {
	Row int
	Col int
}

// DropAreas returns every cell of the grid in row-major order.
func (c *Circuit) DropAreas() []Cell {
	var cells []Cell
	for row := range c.Grid {
		for col := range c.Grid[row] {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

// Connector is a vertical wire to draw in Col from row Top down to row Bottom.
type Connector struct {
	Top    int
	Col    int
	Bottom int
}

// Connectors derives the vertical wires of the circuit column by column.
// A column holding a node and a square gate on different rows is wired from
// its top to its bottom occupied row. A column with exactly two swap legs is
// wired between them, or top to bottom when nodes control the swap; such a
// column can therefore emit the same connector twice.
func (c *Circuit) Connectors() []Connector {
	var out []Connector
	for col := range c.Grid.Width() {
		top, bottom := -1, -1
		topSwap, botSwap := -1, -1
		swaps := 0
		hasNode, hasSquare := false, false

		for row := range c.Grid {
			t := c.Grid.At(row, col)
			if t.IsEmpty() {
				continue
			}
			if top == -1 {
				top = row
			}
			bottom = row

			if t.IsNode() {
				hasNode = true
			}
			if t.IsSquare() {
				hasSquare = true
			}
			if t.IsSwap() {
				swaps++
				switch swaps {
				case 1:
					topSwap = row
				case 2:
					botSwap = row
				}
			}
		}

		if top != bottom && hasNode && hasSquare {
			out = append(out, Connector{Top: top, Col: col, Bottom: bottom})
		}
		if swaps == 2 {
			if hasNode {
				out = append(out, Connector{Top: top, Col: col, Bottom: bottom})
			} else {
				out = append(out, Connector{Top: topSwap, Col: col, Bottom: botSwap})
			}
		}
	}
	return out
}

// SetTitle sets the circuit title.
func (c *Circuit) SetTitle(title string) {
	c.Title = title
}

// SetDescription sets the circuit description.
func (c *Circuit) SetDescription(description string) {
	c.Description = description
}

// Clear empties the grid, keeping the qubit count, and restores the default
// title and description.
func (c *Circuit) Clear() {
	c.Grid = newGrid(c.NumQubits())
	c.Title = defaultTitle
	c.Description = defaultDescription
}

// Column returns the tokens of col from top to bottom.
func (c *Circuit) Column(col int) []Token {
	out := make([]Token, c.NumQubits())
	for row := range out {
		out[row] = c.Grid.At(row, col)
	}
	return out
}

// String renders the grid one qubit per line, for debugging and tests.
func (c *Circuit) String() string {
	var sb strings.Builder
	for i, row := range c.Grid {
		fmt.Fprintf(&sb, "q%d:", i)
		for _, t := range row {
			sb.WriteString(" " + t.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
