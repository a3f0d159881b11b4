package compute

import (
	"errors"
	"io"

	"github.com/suhaskvittal/quicksilver-go/internal/dag"
	"github.com/suhaskvittal/quicksilver-go/internal/traceio"
	"github.com/suhaskvittal/quicksilver-go/internal/types"
)

// GlobalQubitID maps a client-local qubit id into the shared memory
// hierarchy's id space, so that two clients' identically-numbered logical
// qubits never collide in a single STORAGE's containment set. The original
// keeps one heap-allocated QUBIT per client and never needs this
// translation; the Go port's storages key purely on types.QubitID, so a
// disjoint per-client namespace takes its place.
func GlobalQubitID(client types.ClientID, local types.QubitID) types.QubitID {
	return types.QubitID(client)<<40 | local
}

// Client is one workload instance: a trace-fed DAG, its retirement count
// against the simulation instruction limit, and the set of its qubits
// currently resident in compute local memory.
type Client struct {
	ID types.ClientID

	reader      *traceio.Reader
	dag         *dag.DAG
	dagCapacity int
	streamDone  bool

	InstructionLimit int64
	RetiredUnrolled  int64

	ActiveQubits map[types.QubitID]struct{}
}

// NewClient wraps a per-client trace reader in a DAG-fed scheduling unit.
func NewClient(id types.ClientID, r *traceio.Reader, dagCapacity int, instructionLimit int64) *Client {
	return &Client{
		ID:               id,
		reader:           r,
		dag:              dag.New(r.QubitCount()),
		dagCapacity:      dagCapacity,
		InstructionLimit: instructionLimit,
		ActiveQubits:     make(map[types.QubitID]struct{}),
	}
}

// DAG exposes the client's dependency graph (e.g. for RPC future-rotation
// search).
func (c *Client) DAG() *dag.DAG { return c.dag }

// Done reports whether this client has retired its configured instruction
// budget (§4.10 "client completion").
func (c *Client) Done() bool { return c.RetiredUnrolled >= c.InstructionLimit }

// Refill tops the DAG up to dagCapacity instructions from the trace,
// stopping (without error) at end of stream.
func (c *Client) Refill() error {
	for c.dag.Len() < c.dagCapacity && !c.streamDone {
		inst, err := c.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.streamDone = true
				return nil
			}
			return err
		}
		c.dag.AddInstruction(inst)
	}
	return nil
}

// StreamExhausted reports whether the underlying trace has hit EOF.
func (c *Client) StreamExhausted() bool { return c.streamDone }

func (c *Client) globalQubit(local types.QubitID) types.QubitID {
	return GlobalQubitID(c.ID, local)
}
