package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Import errors. Each one is reported to the user as-is.
var (
	ErrInvalidDocument = errors.New("invalid JSON file")
	ErrInvalidQubits   = errors.New("invalid number of qubits")
	ErrInvalidGate     = errors.New("invalid gate in circuit")
)

// documentKeys is the exact key set of an exported circuit.
var documentKeys = []string{"description", "gates", "qubits", "title"}

// Document is the JSON form of a circuit.
type Document struct {
	Qubits      int       `json:"qubits"`
	Gates       [][]Token `json:"gates"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// MarshalJSON encodes an empty cell as 0 and a gate as its symbol.
func (t Token) MarshalJSON() ([]byte, error) {
	if t.IsEmpty() {
		return []byte("0"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts 0 for an empty cell or a symbol from the gate alphabet.
func (t *Token) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var symbol string
		if err := json.Unmarshal(data, &symbol); err != nil {
			return err
		}
		parsed, err := ParseToken(symbol)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	var n float64
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("unknown gate null: %w", ErrInvalidGate)
	}
	if err := json.Unmarshal(data, &n); err != nil || n != 0 {
		return fmt.Errorf("unknown gate %s: %w", data, ErrInvalidGate)
	}
	*t = Empty
	return nil
}

// Document returns the serializable form of the circuit.
func (c *Circuit) Document() Document {
	return Document{
		Qubits:      c.NumQubits(),
		Gates:       c.Grid.Clone(),
		Title:       c.Title,
		Description: c.Description,
	}
}

// Export encodes the circuit as JSON.
func (c *Circuit) Export() ([]byte, error) {
	return json.Marshal(c.Document())
}

// Circuit builds a circuit from the document, checking the qubit range and
// repairing the grid invariants.
func (d Document) Circuit() (*Circuit, error) {
	if d.Qubits < MinQubits || d.Qubits > MaxQubits {
		return nil, fmt.Errorf("%d qubits: %w", d.Qubits, ErrInvalidQubits)
	}

	c := NewCircuit(d.Qubits)
	c.Title = d.Title
	c.Description = d.Description
	switch len(d.Gates) {
	case 0:
	case d.Qubits:
		c.Grid = Grid(d.Gates).Clone()
		for i, row := range c.Grid {
			if len(row) == 0 {
				c.Grid[i] = []Token{Empty}
			}
		}
		c.NormalizeEmptySpace()
		c.ValidateCircuit()
	default:
		return nil, fmt.Errorf("%d gate rows for %d qubits: %w", len(d.Gates), d.Qubits, ErrInvalidDocument)
	}
	return c, nil
}

// ImportCircuit decodes a JSON circuit. The document must carry exactly the
// title, description, qubits and gates keys, a qubit count within bounds, and
// only known gates. Nothing is returned on failure, so a live circuit is
// never partially overwritten.
func ImportCircuit(data []byte) (*Circuit, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if !slices.Equal(keys, documentKeys) {
		return nil, ErrInvalidDocument
	}

	var d Document
	if err := json.Unmarshal(raw["qubits"], &d.Qubits); err != nil {
		return nil, fmt.Errorf("qubits: %w", ErrInvalidQubits)
	}
	if d.Qubits < MinQubits || d.Qubits > MaxQubits {
		return nil, fmt.Errorf("%d qubits: %w", d.Qubits, ErrInvalidQubits)
	}
	if err := json.Unmarshal(raw["gates"], &d.Gates); err != nil {
		if errors.Is(err, ErrInvalidGate) {
			return nil, ErrInvalidGate
		}
		return nil, fmt.Errorf("gates: %w", ErrInvalidDocument)
	}
	if err := json.Unmarshal(raw["title"], &d.Title); err != nil {
		return nil, fmt.Errorf("title: %w", ErrInvalidDocument)
	}
	if err := json.Unmarshal(raw["description"], &d.Description); err != nil {
		return nil, fmt.Errorf("description: %w", ErrInvalidDocument)
	}

	return d.Circuit()
}

// ExportFile writes the circuit as JSON to path.
func (c *Circuit) ExportFile(path string) error {
	data, err := c.Export()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportFile reads a JSON circuit from path.
func ImportFile(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ImportCircuit(data)
}
