package main

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedQASM = errors.New("column has no OpenQASM 2.0 equivalent")

// qasmNames maps unit gates to their qelib1.inc names, uncontrolled and with
// a single control.
var qasmNames = map[GateKind][2]string{
	KindX: {"x", "cx"},
	KindY: {"y", "cy"},
	KindZ: {"z", "cz"},
	KindH: {"h", "ch"},
	KindS: {"s", ""},
	KindT: {"t", ""},
	KindI: {"id", ""},
}

// ToQASM generates OpenQASM 2.0 output for the circuit. Qubits set in measure
// are measured into the matching classical bit at the end.
func (c *Circuit) ToQASM(measure []bool) (string, error) {
	n := c.NumQubits()

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", n)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", n)

	for col := range c.NumColumns() {
		if err := writeColumnQASM(&sb, c.Column(col)); err != nil {
			return "", fmt.Errorf("column %d: %w", col, err)
		}
	}

	for q, on := range measure {
		if on && q < n {
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", q, q)
		}
	}
	return sb.String(), nil
}

func qubitList(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("q[%d]", r)
	}
	return strings.Join(parts, ", ")
}

func writeColumnQASM(sb *strings.Builder, column []Token) error {
	var controls, anti, swaps, badSwaps []int
	for row, t := range column {
		switch {
		case t.IsBarrier():
			all := make([]int, len(column))
			for i := range all {
				all[i] = i
			}
			fmt.Fprintf(sb, "barrier %s;\n", qubitList(all))
			return nil
		case t.Kind == KindControl:
			controls = append(controls, row)
		case t.Kind == KindAntiControl:
			anti = append(anti, row)
		case t.IsSwap() && t.Invalid:
			badSwaps = append(badSwaps, row)
		case t.IsSwap():
			swaps = append(swaps, row)
		}
	}
	controls = append(controls, anti...)

	var body strings.Builder
	if len(badSwaps) > 0 {
		fmt.Fprintf(&body, "// unpaired swap on %s\n", qubitList(badSwaps))
	}
	if len(swaps) == 2 {
		switch len(controls) {
		case 0:
			fmt.Fprintf(&body, "swap %s;\n", qubitList(swaps))
		case 1:
			fmt.Fprintf(&body, "cswap %s;\n", qubitList(append([]int{controls[0]}, swaps...)))
		default:
			return fmt.Errorf("swap with %d controls: %w", len(controls), ErrUnsupportedQASM)
		}
	}
	for row, t := range column {
		if !t.IsUnit() {
			continue
		}
		names := qasmNames[t.Kind]
		switch {
		case len(controls) == 0:
			fmt.Fprintf(&body, "%s q[%d];\n", names[0], row)
		case len(controls) == 1 && names[1] != "":
			fmt.Fprintf(&body, "%s q[%d], q[%d];\n", names[1], controls[0], row)
		case len(controls) == 2 && t.Kind == KindX:
			fmt.Fprintf(&body, "ccx q[%d], q[%d], q[%d];\n", controls[0], controls[1], row)
		default:
			return fmt.Errorf("%s with %d controls: %w", t, len(controls), ErrUnsupportedQASM)
		}
	}

	for _, q := range anti {
		fmt.Fprintf(sb, "x q[%d];\n", q)
	}
	sb.WriteString(body.String())
	for _, q := range anti {
		fmt.Fprintf(sb, "x q[%d];\n", q)
	}
	return nil
}
