// Command qs-rw-test round-trips a trace file through the reader and
// writer and diffs the result, exercising the testable property that
// decode(encode(x)) == x (§8). Grounded on
// original_source/main/qs_rw_test.cpp.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
)

func main() {
	var rewritePath string

	root := &cobra.Command{
		Use:   "qs-rw-test <trace-file>",
		Short: "Round-trip a trace file through the reader/writer and diff the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if rerr := simerr.Recover("qs-rw-test.main"); rerr != nil {
					err = rerr
				}
			}()
			return run(args[0], rewritePath)
		},
	}
	root.Flags().StringVarP(&rewritePath, "rewrite", "o", "", "also write the decoded stream back out to this path for manual inspection")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, rewritePath string) error {
	r, err := traceio.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var w *traceio.Writer
	if rewritePath != "" {
		w, err = traceio.CreateWriter(rewritePath, r.QubitCount())
		if err != nil {
			return err
		}
		defer w.Close()
	}

	fmt.Printf("num_qubits: %d\n", r.QubitCount())

	var n int
	for {
		inst, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		fmt.Println(inst)
		if !diffRoundTrip(inst) {
			return simerr.Newf("qs-rw-test.run", simerr.CodeMalformedTrace, "instruction %d failed encode/decode round trip", n)
		}
		if w != nil {
			if err := w.Write(inst); err != nil {
				return err
			}
		}
		n++
	}

	fmt.Printf("qs-rw-test: %d instructions round-tripped cleanly\n", n)
	return nil
}

// diffRoundTrip re-encodes inst and decodes the result, reporting whether
// the decoded instruction matches the original in every field the wire
// format carries.
func diffRoundTrip(inst *instruction.Instruction) bool {
	buf := inst.Encode(nil)
	decoded, err := instruction.Decode(&bytesReader{buf})
	if err != nil {
		return false
	}
	if decoded.Kind != inst.Kind || decoded.Qubits != inst.Qubits {
		return false
	}
	if instruction.IsRotation(inst.Kind) {
		if !decoded.Angle.Equal(inst.Angle) || len(decoded.RotSeq) != len(inst.RotSeq) {
			return false
		}
		for i := range inst.RotSeq {
			if decoded.RotSeq[i] != inst.RotSeq[i] {
				return false
			}
		}
	}
	return true
}

// bytesReader adapts a byte slice to io.Reader for instruction.Decode.
type bytesReader struct{ b []byte }

func (r *bytesReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}
