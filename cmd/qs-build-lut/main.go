// Command qs-build-lut drives the rotation synthesis oracle over a grid of
// angles and serializes the results as a rotation lookup table (§6),
// readable with traceio.ReadLUT. internal/rotation.Manager does not load
// such tables.
// Grounded on original_source/main/qs_build_lut.cpp.
package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/rotation"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
)

func main() {
	var threads int64

	root := &cobra.Command{
		Use:   "qs-build-lut <lower-bound> <upper-bound> <count> <output>",
		Short: "Build a rotation lookup table over a grid of angles",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rerr := simerr.Recover("qs-build-lut.main"); rerr != nil {
					err = rerr
				}
			}()
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return simerr.Wrap("qs-build-lut.main", simerr.CodeInvalidArgument, err)
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return simerr.Wrap("qs-build-lut.main", simerr.CodeInvalidArgument, err)
			}
			count, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return simerr.Wrap("qs-build-lut.main", simerr.CodeInvalidArgument, err)
			}
			return run(lo, hi, count, args[3], int(threads))
		},
	}
	root.Flags().Int64VarP(&threads, "threads", "t", 8, "number of worker goroutines")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(lo, hi float64, count int64, outputFile string, threads int) error {
	if lo < 0.0 && hi > 0.0 {
		return simerr.New("qs-build-lut.run", simerr.CodeInvalidArgument, "angle range must not cross zero")
	}
	if count <= 0 {
		return simerr.Newf("qs-build-lut.run", simerr.CodeInvalidArgument, "count must be positive, got %d", count)
	}

	// Work in magnitudes so entries come out in increasing |angle| order,
	// restoring the sign on each grid angle before it is synthesized (the
	// oracle and the fixed-point angle encoding are sign-agnostic over
	// [0, 2*pi)).
	negative := lo < 0.0 && hi <= 0.0
	lo, hi = math.Abs(lo), math.Abs(hi)
	if lo > hi {
		lo, hi = hi, lo
	}

	angles := make([]float64, count)
	step := (hi - lo) / float64(count)
	for i := int64(0); i < count; i++ {
		a := lo + step*float64(i)
		if negative {
			a = -a
		}
		angles[i] = a
	}

	oracle := rotation.GridOracle{}
	entries := make([]traceio.LUTEntry, count)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				a := angles[idx]
				precision := precisionFor(a)
				angle := fixedpoint.FromFloatAngle(instruction.AnglePrecisionBits, a)
				seq := oracle.Synthesize(angle, precision)
				entries[idx] = traceio.LUTEntry{Angle: angle, Seq: seq}
			}
		}()
	}
	for i := range angles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := traceio.WriteLUT(outputFile, entries); err != nil {
		return err
	}
	fmt.Printf("qs-build-lut: wrote %d entries to %s\n", count, outputFile)
	return nil
}

// precisionFor derives a synthesis precision (decimal digits) scaled to the
// angle's own magnitude, matching the original's
// ceil(-log10(|angle|)) + 5 heuristic: smaller angles need more digits of
// precision to synthesize accurately.
func precisionFor(angle float64) int {
	if angle == 0 {
		return 16
	}
	return int(math.Ceil(-math.Log10(math.Abs(angle)))) + 5
}
