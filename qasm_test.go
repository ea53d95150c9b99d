package main

import (
	"errors"
	"strings"
	"testing"
)

func TestToQASMBell(t *testing.T) {
	qasm, err := bellCircuit().ToQASM([]bool{true, true})
	if err != nil {
		t.Fatal(err)
	}

	want := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c[3];

h q[0];
cx q[0], q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`
	if qasm != want {
		t.Errorf("got:\n%s\nwant:\n%s", qasm, want)
	}
}

func TestToQASMColumns(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
		want []string
	}{
		{
			name: "barrier",
			grid: mustGrid(t, "b 0", "b 0", "b 0"),
			want: []string{"barrier q[0], q[1], q[2];"},
		},
		{
			name: "swap",
			grid: mustGrid(t, "sw 0", "0 0", "sw 0"),
			want: []string{"swap q[0], q[2];"},
		},
		{
			name: "controlled swap",
			grid: mustGrid(t, "sw 0", "c 0", "sw 0"),
			want: []string{"cswap q[1], q[0], q[2];"},
		},
		{
			name: "toffoli",
			grid: mustGrid(t, "c 0", "c 0", "X 0"),
			want: []string{"ccx q[0], q[1], q[2];"},
		},
		{
			name: "anti-control",
			grid: mustGrid(t, "ac 0", "Z 0", "0 0"),
			want: []string{"x q[0];", "cz q[0], q[1];", "x q[0];"},
		},
		{
			name: "lone swap",
			grid: mustGrid(t, "Esw 0", "0 0", "0 0"),
			want: []string{"// unpaired swap on q[0]"},
		},
		{
			name: "parallel gates",
			grid: mustGrid(t, "H 0", "T 0", "I 0"),
			want: []string{"h q[0];", "t q[1];", "id q[2];"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qasm, err := (&Circuit{Grid: tt.grid}).ToQASM(nil)
			if err != nil {
				t.Fatal(err)
			}
			body := strings.SplitN(qasm, "creg c[3];\n\n", 2)[1]
			got := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToQASMUnsupported(t *testing.T) {
	grids := []Grid{
		mustGrid(t, "c 0", "S 0", "0 0"),
		mustGrid(t, "c 0", "c 0", "H 0"),
		mustGrid(t, "c 0", "c 0", "sw 0", "sw 0"),
	}
	for i, g := range grids {
		if _, err := (&Circuit{Grid: g}).ToQASM(nil); !errors.Is(err, ErrUnsupportedQASM) {
			t.Errorf("grid %d: got %v, want ErrUnsupportedQASM", i, err)
		}
	}
}
