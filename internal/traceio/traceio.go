// Package traceio implements the binary trace file and rotation lookup
// table file formats (§6), transparently selecting the gzip codec by file
// extension exactly as the reference implementation's generic_strm_type
// dispatches between FILE* and gzFile.
package traceio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/suhaskvittal/quicksilver-go/internal/instruction"
	"github.com/suhaskvittal/quicksilver-go/internal/simerr"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// Reader reads a binary trace: a 4-byte little-endian qubit-count header
// followed by concatenated instruction records (§4.2, §6).
type Reader struct {
	r          io.Reader
	closer     io.Closer
	qubitCount types.QubitID
}

// OpenReader opens path for trace reading, selecting the gzip codec when
// path ends in ".gz".
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.Wrap("traceio.OpenReader", simerr.CodeIO, err)
	}
	var r io.Reader = bufio.NewReader(f)
	var closer io.Closer = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			f.Close()
			return nil, simerr.Wrap("traceio.OpenReader", simerr.CodeIO, err)
		}
		r = gz
		closer = multiCloser{gz, f}
	}

	tr := &Reader{r: r, closer: closer}
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		closer.Close()
		return nil, simerr.Wrap("traceio.OpenReader", simerr.CodeMalformedTrace, err)
	}
	tr.qubitCount = types.QubitID(binary.LittleEndian.Uint32(hdr[:]))
	return tr, nil
}

// QubitCount returns the qubit count declared in the trace header.
func (r *Reader) QubitCount() types.QubitID { return r.qubitCount }

// Next decodes the next instruction record, returning io.EOF at a clean
// end of program.
func (r *Reader) Next() (*instruction.Instruction, error) {
	return instruction.Decode(r.r)
}

// Close releases the underlying file (and gzip reader, if any).
func (r *Reader) Close() error { return r.closer.Close() }

// Writer writes a binary trace: header then concatenated records.
type Writer struct {
	w      io.Writer
	closer io.Closer
}

// CreateWriter creates path for trace writing, selecting the gzip codec
// when path ends in ".gz", and writes the qubit-count header.
func CreateWriter(path string, qubitCount types.QubitID) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, simerr.Wrap("traceio.CreateWriter", simerr.CodeIO, err)
	}
	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	closer := io.Closer(flushCloser{bw, f})
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		w = gz
		closer = multiCloser{gz, flushCloser{bw, f}}
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(qubitCount))
	if _, err := w.Write(hdr[:]); err != nil {
		closer.Close()
		return nil, simerr.Wrap("traceio.CreateWriter", simerr.CodeIO, err)
	}
	return &Writer{w: w, closer: closer}, nil
}

// Write appends one instruction's binary record.
func (w *Writer) Write(inst *instruction.Instruction) error {
	buf := inst.Encode(nil)
	if _, err := w.w.Write(buf); err != nil {
		return simerr.Wrap("traceio.Writer.Write", simerr.CodeIO, err)
	}
	return nil
}

// Close flushes and closes the underlying writer chain.
func (w *Writer) Close() error { return w.closer.Close() }

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// flushCloser flushes a *bufio.Writer before closing the underlying file.
type flushCloser struct {
	bw *bufio.Writer
	f  *os.File
}

func (fc flushCloser) Close() error {
	if err := fc.bw.Flush(); err != nil {
		fc.f.Close()
		return err
	}
	return fc.f.Close()
}
