package main

import (
	"math"
	"math/cmplx"
)

type Complex = complex128

// StateVector holds the amplitudes of an n-qubit register. Qubit 0 is the
// most significant bit of a basis index, so |q0 q1 ... qn-1> reads left to right.
type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// bit returns the basis-index mask of qubit q.
func (s *StateVector) bit(q int) int {
	return 1 << (s.NumQubits - 1 - q)
}

// controlMask returns the mask that must be fully set for a controlled
// operation to act.
func (s *StateVector) controlMask(controls []int) int {
	mask := 0
	for _, c := range controls {
		mask |= s.bit(c)
	}
	return mask
}

// matrix2 is a single-qubit unitary [[a, b], [c, d]].
type matrix2 [4]Complex

var (
	invSqrt2 = complex(1/math.Sqrt2, 0)

	unitaries = map[GateKind]matrix2{
		KindX: {0, 1, 1, 0},
		KindY: {0, -1i, 1i, 0},
		KindZ: {1, 0, 0, -1},
		KindH: {invSqrt2, invSqrt2, invSqrt2, -invSqrt2},
		KindS: {1, 0, 0, 1i},
		KindT: {1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))},
		KindI: {1, 0, 0, 1},
	}
)

// ApplyGate applies a unit gate to target, conditioned on every control
// qubit being |1>. Kinds without a unitary are ignored.
func (s *StateVector) ApplyGate(kind GateKind, target int, controls ...int) {
	m, ok := unitaries[kind]
	if !ok {
		return
	}
	s.apply(m, target, s.controlMask(controls))
}

func (s *StateVector) apply(m matrix2, target, mask int) {
	bit := s.bit(target)
	for i := range s.Amplitudes {
		if i&bit != 0 || i&mask != mask {
			continue
		}
		j := i | bit
		a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = m[0]*a0 + m[1]*a1
		s.Amplitudes[j] = m[2]*a0 + m[3]*a1
	}
}

// ApplySwap exchanges q1 and q2, conditioned on every control qubit being |1>.
func (s *StateVector) ApplySwap(q1, q2 int, controls ...int) {
	mask := s.controlMask(controls)
	bit1, bit2 := s.bit(q1), s.bit(q2)
	for i := range s.Amplitudes {
		if i&bit1 != 0 && i&bit2 == 0 && i&mask == mask {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Probabilities returns |amplitude|² for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		probs[i] = real(a * cmplx.Conj(a))
	}
	return probs
}

// Marginal returns the probability distribution over the given qubits,
// summing out the rest. Qubits are taken in ascending order with the lowest
// index most significant. With no qubits the result is [1].
func (s *StateVector) Marginal(qubits []int) []float64 {
	selected := make([]int, 0, len(qubits))
	for q := range s.NumQubits {
		for _, want := range qubits {
			if want == q {
				selected = append(selected, q)
				break
			}
		}
	}

	out := make([]float64, 1<<len(selected))
	for i, p := range s.Probabilities() {
		idx := 0
		for _, q := range selected {
			idx <<= 1
			if i&s.bit(q) != 0 {
				idx |= 1
			}
		}
		out[idx] += p
	}
	return out
}

// ProbOne returns the probability of measuring qubit q as |1>.
func (s *StateVector) ProbOne(q int) float64 {
	return s.Marginal([]int{q})[1]
}

type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) GetQubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, p := range s.Probabilities() {
		for q := range s.NumQubits {
			if i&s.bit(q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

// ApplyColumn applies one grid column to the state. Anti-control rows are
// flipped around the column so that both node kinds act as controls; a valid
// swap pair and every unit gate are conditioned on all of the column's nodes.
// Barrier columns are skipped. Probes do not touch the state.
func (s *StateVector) ApplyColumn(column []Token) {
	var controls, anti, swaps []int
	for row, t := range column {
		switch {
		case t.IsBarrier():
			return
		case t.Kind == KindControl:
			controls = append(controls, row)
		case t.Kind == KindAntiControl:
			anti = append(anti, row)
		case t.IsSwap() && !t.Invalid:
			swaps = append(swaps, row)
		}
	}

	for _, q := range anti {
		s.ApplyGate(KindX, q)
	}
	controls = append(controls, anti...)

	if len(swaps) == 2 {
		s.ApplySwap(swaps[0], swaps[1], controls...)
	}
	for row, t := range column {
		if t.IsUnit() {
			s.ApplyGate(t.Kind, row, controls...)
		}
	}

	for _, q := range anti {
		s.ApplyGate(KindX, q)
	}
}
