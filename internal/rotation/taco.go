package rotation

import "github.com/suhaskvittal/quicksilver-go/internal/instruction"

// Taco is spec.md §4.4's two-pass post-synthesis optimization. Apply runs
// H-sandwich flipping then basis-run consolidation, in that order, on a
// raw oracle-synthesized single-qubit Clifford+T sequence.
func Taco(seq []instruction.Kind) []instruction.Kind {
	return consolidate(hSandwichFlip(seq))
}

// hSandwichFlip implements §4.4(a): walking left to right, every gate
// between an odd-positioned and the next H is conjugated by H (mapped to
// its opposite-basis form) and the two H's are dropped. If the total H
// count is odd, the unmatched H is propagated to the end: each gate after
// it is flipped one additional time, and a single H is appended.
//
// This is equivalent to tracking a running parity flag that toggles on
// every H: H(G)H = G' (basis-flipped) cancels the pair, and two
// consecutive flips (a second H) cancel back to the identity, exactly
// matching "between every pair of H gates" semantics.
func hSandwichFlip(seq []instruction.Kind) []instruction.Kind {
	out := make([]instruction.Kind, 0, len(seq))
	flip := false
	for _, k := range seq {
		if k == instruction.H {
			flip = !flip
			continue
		}
		if flip {
			out = append(out, flipBasis(k))
		} else {
			out = append(out, k)
		}
	}
	if flip {
		out = append(out, instruction.H)
	}
	return out
}

// flipBasis maps a gate between its Z-basis and X-basis forms (S<->SX,
// T<->TX, SDG<->SXDG, TDG<->TXDG, Z<->X); Y is self-paired; anything else
// (CX, CZ, and H which never reaches here) passes through unchanged.
func flipBasis(k instruction.Kind) instruction.Kind {
	switch k {
	case instruction.S:
		return instruction.SX
	case instruction.SX:
		return instruction.S
	case instruction.SDG:
		return instruction.SXDG
	case instruction.SXDG:
		return instruction.SDG
	case instruction.T:
		return instruction.TX
	case instruction.TX:
		return instruction.T
	case instruction.TDG:
		return instruction.TXDG
	case instruction.TXDG:
		return instruction.TDG
	case instruction.Z:
		return instruction.X
	case instruction.X:
		return instruction.Z
	default:
		return k
	}
}

// basisOf reports which weighted basis a gate belongs to for run
// consolidation ('Z' or 'X'), or 0 for a gate that breaks a run (Y, CX,
// CZ, H, anything not in the weight table).
func basisOf(k instruction.Kind) rune {
	switch k {
	case instruction.T, instruction.S, instruction.Z, instruction.SDG, instruction.TDG:
		return 'Z'
	case instruction.TX, instruction.SX, instruction.X, instruction.SXDG, instruction.TXDG:
		return 'X'
	default:
		return 0
	}
}

// weightOf returns a gate's π/4 weight (§4.4): T/TX:1, S/SX:2, Z/X:4,
// SDG/SXDG:6, TDG/TXDG:7.
func weightOf(k instruction.Kind) int {
	switch k {
	case instruction.T, instruction.TX:
		return 1
	case instruction.S, instruction.SX:
		return 2
	case instruction.Z, instruction.X:
		return 4
	case instruction.SDG, instruction.SXDG:
		return 6
	case instruction.TDG, instruction.TXDG:
		return 7
	default:
		return 0
	}
}

// gateForWeight returns the canonical gate of the given basis ('Z' or 'X')
// carrying the given π/4 weight (1, 2, 4, 6, or 7).
func gateForWeight(basis rune, weight int) instruction.Kind {
	if basis == 'X' {
		switch weight {
		case 1:
			return instruction.TX
		case 2:
			return instruction.SX
		case 4:
			return instruction.X
		case 6:
			return instruction.SXDG
		case 7:
			return instruction.TXDG
		}
	}
	switch weight {
	case 1:
		return instruction.T
	case 2:
		return instruction.S
	case 4:
		return instruction.Z
	case 6:
		return instruction.SDG
	case 7:
		return instruction.TDG
	}
	return instruction.NIL
}

// consolidate implements §4.4(b): partition seq into maximal same-basis
// runs, and replace each run with the single gate (optionally followed by
// a π gate) representing the sum mod 8 of its gates' weights.
func consolidate(seq []instruction.Kind) []instruction.Kind {
	out := make([]instruction.Kind, 0, len(seq))
	var runBasis rune
	sum := 0

	flush := func() {
		if runBasis == 0 {
			return
		}
		out = append(out, consolidatedGates(runBasis, sum)...)
		runBasis = 0
		sum = 0
	}

	for _, k := range seq {
		b := basisOf(k)
		if b == 0 {
			flush()
			out = append(out, k)
			continue
		}
		if runBasis != 0 && runBasis != b {
			flush()
		}
		runBasis = b
		sum = (sum + weightOf(k)) % 8
	}
	flush()
	return out
}

// consolidatedGates implements the §4.4 sum->gate table: 0 -> empty;
// 1/5 -> T and 3/7 -> TDG, where 5 and 3 additionally emit the basis's π
// gate (T^5 = Z·T, T^3 = Z·TDG); 2 -> S; 4 -> Z; 6 -> SDG; with the basis
// carried through.
func consolidatedGates(basis rune, sum int) []instruction.Kind {
	switch sum {
	case 0:
		return nil
	case 1:
		return []instruction.Kind{gateForWeight(basis, 1)}
	case 2:
		return []instruction.Kind{gateForWeight(basis, 2)}
	case 3:
		return []instruction.Kind{gateForWeight(basis, 7), gateForWeight(basis, 4)}
	case 7:
		return []instruction.Kind{gateForWeight(basis, 7)}
	case 4:
		return []instruction.Kind{gateForWeight(basis, 4)}
	case 5:
		return []instruction.Kind{gateForWeight(basis, 1), gateForWeight(basis, 4)}
	case 6:
		return []instruction.Kind{gateForWeight(basis, 6)}
	}
	return nil
}
