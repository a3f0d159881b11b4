package instruction

import (
	"encoding/binary"
	"io"

	"github.com/suhaskvittal/quicksilver-go/internal/fixedpoint"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// record layout (§4.2):
//   2 bytes   opcode
//   3*8 bytes qubit operands (zero-padded, true arity per opcode)
//   1 byte    presence flag A (1 iff angle/urotseq fields follow)
//   [if A=1]  1 byte word-count N; N*8 bytes angle words (LE, ascending word
//             index); 2 bytes urotseq length L; L bytes of opcodes
//   1 byte    correction count C
//   per correction: 2 bytes length; that many 1-byte opcodes

// Encode appends this instruction's binary record to dst and returns the
// extended slice.
func (i *Instruction) Encode(dst []byte) []byte {
	var hdr [2 + 3*8 + 1]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(i.Kind))
	for q := 0; q < MaxQubits; q++ {
		binary.LittleEndian.PutUint64(hdr[2+q*8:2+q*8+8], uint64(i.Qubits[q]))
	}
	hasAngle := IsRotation(i.Kind)
	if hasAngle {
		hdr[len(hdr)-1] = 1
	}
	dst = append(dst, hdr[:]...)

	if hasAngle {
		words := i.Angle.Words()
		dst = append(dst, byte(len(words)))
		for _, w := range words {
			var wb [8]byte
			binary.LittleEndian.PutUint64(wb[:], w)
			dst = append(dst, wb[:]...)
		}
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(i.RotSeq)))
		dst = append(dst, lb[:]...)
		for _, k := range i.RotSeq {
			dst = append(dst, byte(k))
		}
	}

	dst = append(dst, byte(len(i.Corrections)))
	for _, c := range i.Corrections {
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(c)))
		dst = append(dst, lb[:]...)
		for _, k := range c {
			dst = append(dst, byte(k))
		}
	}
	return dst
}

// Decode reads one binary record from r. Returns io.EOF unchanged (a clean
// end of program, §6); any other read failure mid-record is a malformed
// trace (category 2, §7) and returned wrapped as *simerr.Error.
func Decode(r io.Reader) (*Instruction, error) {
	var hdr [2 + 3*8 + 1]byte
	if _, err := io.ReadFull(r, hdr[:2]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
	}
	if _, err := io.ReadFull(r, hdr[2:]); err != nil {
		return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
	}

	kind := Kind(binary.LittleEndian.Uint16(hdr[0:2]))
	if kind >= NIL {
		return nil, simerr.Newf("instruction.Decode", simerr.CodeMalformedTrace, "bogus opcode %d", kind)
	}
	var qubits [MaxQubits]types.QubitID
	for q := 0; q < MaxQubits; q++ {
		qubits[q] = types.QubitID(binary.LittleEndian.Uint64(hdr[2+q*8 : 2+q*8+8]))
	}
	hasAngle := hdr[len(hdr)-1] != 0
	if hasAngle != IsRotation(kind) {
		return nil, simerr.Newf("instruction.Decode", simerr.CodeMalformedTrace, "angle presence flag inconsistent with opcode %s", kind)
	}

	inst := &Instruction{Kind: kind, Number: -1, FirstReady: types.MaxCycle, CycleDone: types.MaxCycle}
	copy(inst.Qubits[:], qubits[:])

	if hasAngle {
		var nb [1]byte
		if _, err := io.ReadFull(r, nb[:]); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		n := int(nb[0])
		words := make([]uint64, n)
		wordBuf := make([]byte, 8*n)
		if _, err := io.ReadFull(r, wordBuf); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		for w := 0; w < n; w++ {
			words[w] = binary.LittleEndian.Uint64(wordBuf[w*8 : w*8+8])
		}
		inst.Angle = fixedpoint.FromWords(words)

		var lb [2]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		seqLen := int(binary.LittleEndian.Uint16(lb[:]))
		seqBuf := make([]byte, seqLen)
		if _, err := io.ReadFull(r, seqBuf); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		inst.RotSeq = make([]Kind, seqLen)
		for idx, b := range seqBuf {
			inst.RotSeq[idx] = Kind(b)
		}
	}

	var cb [1]byte
	if _, err := io.ReadFull(r, cb[:]); err != nil {
		return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
	}
	count := int(cb[0])
	inst.Corrections = make([][]Kind, count)
	for c := 0; c < count; c++ {
		var lb [2]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		length := int(binary.LittleEndian.Uint16(lb[:]))
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, simerr.Wrap("instruction.Decode", simerr.CodeMalformedTrace, err)
		}
		seq := make([]Kind, length)
		for idx, b := range buf {
			seq[idx] = Kind(b)
		}
		inst.Corrections[c] = seq
	}

	return inst, nil
}
