package main

import "fmt"

// GateKind identifies what occupies a grid cell.
type GateKind int

const (
	KindEmpty GateKind = iota
	KindX
	KindY
	KindZ
	KindH
	KindS
	KindT
	KindI
	KindControl
	KindAntiControl
	KindSwap
	KindBarrier
	KindProbe
)

// Token is the content of a single grid cell. The zero value is an empty cell.
// Invalid only applies to swap legs and marks a leg whose column does not hold
// exactly two of them.
type Token struct {
	Kind    GateKind
	Invalid bool
}

// Empty is the absence of a gate.
var Empty = Token{}

// Convenience tokens.
var (
	GateX       = Token{Kind: KindX}
	GateY       = Token{Kind: KindY}
	GateZ       = Token{Kind: KindZ}
	GateH       = Token{Kind: KindH}
	GateS       = Token{Kind: KindS}
	GateT       = Token{Kind: KindT}
	GateI       = Token{Kind: KindI}
	Control     = Token{Kind: KindControl}
	AntiControl = Token{Kind: KindAntiControl}
	Swap        = Token{Kind: KindSwap}
	BadSwap     = Token{Kind: KindSwap, Invalid: true}
	Barrier     = Token{Kind: KindBarrier}
	Probe       = Token{Kind: KindProbe}
)

var kindSymbols = map[GateKind]string{
	KindX:           "X",
	KindY:           "Y",
	KindZ:           "Z",
	KindH:           "H",
	KindS:           "S",
	KindT:           "T",
	KindI:           "I",
	KindControl:     "c",
	KindAntiControl: "ac",
	KindSwap:        "sw",
	KindBarrier:     "b",
	KindProbe:       "M",
}

var symbolTokens = map[string]Token{
	"X":   GateX,
	"Y":   GateY,
	"Z":   GateZ,
	"H":   GateH,
	"S":   GateS,
	"T":   GateT,
	"I":   GateI,
	"c":   Control,
	"ac":  AntiControl,
	"sw":  Swap,
	"Esw": BadSwap,
	"b":   Barrier,
	"M":   Probe,
}

// ParseToken maps a symbol from the gate alphabet to its token.
func ParseToken(symbol string) (Token, error) {
	t, ok := symbolTokens[symbol]
	if !ok {
		return Empty, fmt.Errorf("unknown gate %q: %w", symbol, ErrInvalidGate)
	}
	return t, nil
}

// String returns the token's symbol; "Esw" for an invalid swap leg and "0"
// for an empty cell.
func (t Token) String() string {
	if t.Kind == KindEmpty {
		return "0"
	}
	if t.Kind == KindSwap && t.Invalid {
		return "Esw"
	}
	return kindSymbols[t.Kind]
}

// IsEmpty reports whether the cell holds no gate.
func (t Token) IsEmpty() bool { return t.Kind == KindEmpty }

// IsBarrier reports whether the token is a barrier marker.
func (t Token) IsBarrier() bool { return t.Kind == KindBarrier }

// IsSwap reports whether the token is a swap leg, valid or not.
func (t Token) IsSwap() bool { return t.Kind == KindSwap }

// IsNode reports whether the token is a control or anti-control node.
func (t Token) IsNode() bool {
	return t.Kind == KindControl || t.Kind == KindAntiControl
}

// IsUnit reports whether the token is a square single-qubit gate.
func (t Token) IsUnit() bool {
	return t.Kind >= KindX && t.Kind <= KindI
}

// IsSquare reports whether the token is drawn as a box a node can wire to:
// unit gates and swap legs.
func (t Token) IsSquare() bool {
	return t.IsUnit() || t.IsSwap()
}
