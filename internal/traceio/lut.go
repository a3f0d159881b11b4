package traceio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
)

// LUTEntry is one precomputed rotation: an angle and the Clifford+T
// sequence synthesizing it (§6: "Rotation lookup table file").
type LUTEntry struct {
	Angle fixedpoint.Value
	Seq   []instruction.Kind
}

// WriteLUT writes entries to path in the §6 rotation lookup table format.
// Entries are written in the order given; callers are responsible for
// presenting them in nondecreasing angle magnitude as the format requires.
func WriteLUT(path string, entries []LUTEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return simerr.Wrap("traceio.WriteLUT", simerr.CodeIO, err)
	}
	defer f.Close()

	for _, e := range entries {
		words := e.Angle.Words()
		if _, err := f.Write([]byte{byte(len(words))}); err != nil {
			return simerr.Wrap("traceio.WriteLUT", simerr.CodeIO, err)
		}
		for _, w := range words {
			var wb [8]byte
			binary.LittleEndian.PutUint64(wb[:], w)
			if _, err := f.Write(wb[:]); err != nil {
				return simerr.Wrap("traceio.WriteLUT", simerr.CodeIO, err)
			}
		}
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(e.Seq)))
		if _, err := f.Write(lb[:]); err != nil {
			return simerr.Wrap("traceio.WriteLUT", simerr.CodeIO, err)
		}
		seqBytes := make([]byte, len(e.Seq))
		for i, k := range e.Seq {
			seqBytes[i] = byte(k)
		}
		if _, err := f.Write(seqBytes); err != nil {
			return simerr.Wrap("traceio.WriteLUT", simerr.CodeIO, err)
		}
	}
	return nil
}

// ReadLUT reads every entry from path.
func ReadLUT(path string) ([]LUTEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.Wrap("traceio.ReadLUT", simerr.CodeIO, err)
	}
	defer f.Close()

	var entries []LUTEntry
	for {
		var nb [1]byte
		if _, err := io.ReadFull(f, nb[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, simerr.Wrap("traceio.ReadLUT", simerr.CodeMalformedTrace, err)
		}
		n := int(nb[0])
		wordBuf := make([]byte, 8*n)
		if _, err := io.ReadFull(f, wordBuf); err != nil {
			return nil, simerr.Wrap("traceio.ReadLUT", simerr.CodeMalformedTrace, err)
		}
		words := make([]uint64, n)
		for w := 0; w < n; w++ {
			words[w] = binary.LittleEndian.Uint64(wordBuf[w*8 : w*8+8])
		}

		var lb [2]byte
		if _, err := io.ReadFull(f, lb[:]); err != nil {
			return nil, simerr.Wrap("traceio.ReadLUT", simerr.CodeMalformedTrace, err)
		}
		seqLen := int(binary.LittleEndian.Uint16(lb[:]))
		seqBuf := make([]byte, seqLen)
		if _, err := io.ReadFull(f, seqBuf); err != nil {
			return nil, simerr.Wrap("traceio.ReadLUT", simerr.CodeMalformedTrace, err)
		}
		seq := make([]instruction.Kind, seqLen)
		for i, b := range seqBuf {
			seq[i] = instruction.Kind(b)
		}
		entries = append(entries, LUTEntry{Angle: fixedpoint.FromWords(words), Seq: seq})
	}
	return entries, nil
}
