// Command qs-gen-binary emits a synthetic instruction stream in the binary
// trace format (§4.2/§6), for use as a test fixture. The OpenQASM
// source-language front-end that the original qs_gen_binary.cpp implements
// is an out-of-scope collaborator (spec.md §1); this generator instead
// draws a random mix of basis gates, rotations, and Toffoli-like gates
// directly, sized by --qubits/--count.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/rotation"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/simlog"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// basisMix is the set of single/two/three-qubit basis kinds a synthetic
// program draws from, excluding rotations (handled separately so every
// emitted RZ carries a valid Clifford+T sequence).
var basisMix = []instruction.Kind{
	instruction.H, instruction.X, instruction.Y, instruction.Z,
	instruction.S, instruction.SX, instruction.SDG, instruction.SXDG,
	instruction.T, instruction.TX, instruction.TDG, instruction.TXDG,
	instruction.CX, instruction.CZ, instruction.SWAP,
	instruction.CCX, instruction.CCZ,
}

func main() {
	var qubits int64
	var count int64
	var output string
	var seed int64
	var rotationFraction float64
	var anglePrecision int

	root := &cobra.Command{
		Use:   "qs-gen-binary",
		Short: "Generate a synthetic instruction stream as a binary trace",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rerr := simerr.Recover("qs-gen-binary.main"); rerr != nil {
					err = rerr
				}
			}()
			return run(qubits, count, output, seed, rotationFraction, anglePrecision)
		},
	}

	flags := root.Flags()
	flags.Int64VarP(&qubits, "qubits", "q", 16, "number of program qubits")
	flags.Int64VarP(&count, "count", "c", 1000, "number of instructions to generate")
	flags.StringVarP(&output, "output", "o", "program.trace", "output trace file path (.gz for gzip)")
	flags.Int64VarP(&seed, "seed", "s", 1, "PRNG seed")
	flags.Float64Var(&rotationFraction, "rotation-fraction", 0.1, "fraction of instructions that are RZ rotations")
	flags.IntVar(&anglePrecision, "angle-precision", 10, "decimal digits of rotation synthesis precision")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(qubits, count int64, output string, seed int64, rotationFraction float64, anglePrecision int) error {
	if qubits <= 0 {
		return simerr.Newf("qs-gen-binary.run", simerr.CodeInvalidArgument, "--qubits must be positive, got %d", qubits)
	}
	log := simlog.Default().With("qs-gen-binary")

	w, err := traceio.CreateWriter(output, types.QubitID(qubits))
	if err != nil {
		return err
	}
	defer w.Close()

	rng := rand.New(rand.NewSource(seed))
	oracle := rotation.GridOracle{}

	for i := int64(0); i < count; i++ {
		var inst *instruction.Instruction
		if rng.Float64() < rotationFraction {
			q := types.QubitID(rng.Int63n(qubits))
			angle := fixedpoint.FromFloatAngle(instruction.AnglePrecisionBits, rng.Float64()*2*3.14159265358979)
			seq := oracle.Synthesize(angle, anglePrecision)
			inst = instruction.NewRotation(instruction.RZ, q, angle, seq)
		} else {
			kind := basisMix[rng.Intn(len(basisMix))]
			arity := instruction.QubitCount(kind)
			operands := randomDistinctQubits(rng, qubits, arity)
			inst = instruction.New(kind, operands...)
		}
		if err := w.Write(inst); err != nil {
			return err
		}
	}

	log.Info("generated synthetic trace", "output", output, "qubits", qubits, "count", count)
	return nil
}

// randomDistinctQubits draws n distinct qubit ids from [0, qubits).
func randomDistinctQubits(rng *rand.Rand, qubits int64, n int) []types.QubitID {
	seen := make(map[types.QubitID]struct{}, n)
	out := make([]types.QubitID, 0, n)
	for len(out) < n {
		q := types.QubitID(rng.Int63n(qubits))
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
