package simstats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineFormatsFloatsFixedPoint(t *testing.T) {
	r := &Report{}
	r.Line("COMPUTE_FREQ_KHZ", 1234.5)
	var buf strings.Builder
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "1234.50000000")
}

func TestLineFormatsNonFloatsWithDefaultVerb(t *testing.T) {
	r := &Report{}
	r.Line("TOTAL_CYCLES", uint64(42))
	var buf strings.Builder
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "42")
}

func TestSectionWritesBareHeaderLine(t *testing.T) {
	r := &Report{}
	r.Section("CLIENT_0")
	r.Line("INST_DONE", 10)
	var buf strings.Builder
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, "CLIENT_0", lines[0])
	require.Contains(t, lines[1], "INST_DONE")
}

func TestWriteToPreservesInsertionOrder(t *testing.T) {
	r := &Report{}
	r.Line("FIRST", 1)
	r.Line("SECOND", 2)
	r.Line("THIRD", 3)
	var buf strings.Builder
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	require.Less(t, strings.Index(out, "FIRST"), strings.Index(out, "SECOND"))
	require.Less(t, strings.Index(out, "SECOND"), strings.Index(out, "THIRD"))
}
