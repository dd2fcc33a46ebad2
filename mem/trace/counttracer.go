package trace

import (
	"fmt"
	"io"

	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/sim/hooking"
)

// CountTracer counts the reads and writes of every port it is attached to.
type CountTracer struct {
	portNames []string
	reads     map[string]uint64
	writes    map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		reads:  make(map[string]uint64),
		writes: make(map[string]uint64),
	}
}

// Func counts the access.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	access, ok := ctx.Item.(syncmem.Access)
	if !ok {
		return
	}

	_, seenRead := t.reads[access.Port]
	_, seenWrite := t.writes[access.Port]
	if !seenRead && !seenWrite {
		t.portNames = append(t.portNames, access.Port)
	}

	if access.Direction == syncmem.Write {
		t.writes[access.Port]++
		return
	}

	t.reads[access.Port]++
}

// PortNames returns the ports that made at least one access, in order of
// their first access.
func (t *CountTracer) PortNames() []string {
	return t.portNames
}

// Reads returns the number of reads made by a port.
func (t *CountTracer) Reads(port string) uint64 {
	return t.reads[port]
}

// Writes returns the number of writes made by a port.
func (t *CountTracer) Writes(port string) uint64 {
	return t.writes[port]
}

// Report prints one summary line per port.
func (t *CountTracer) Report(w io.Writer) {
	for _, name := range t.portNames {
		fmt.Fprintf(w, "%s: %d reads, %d writes\n",
			name, t.reads[name], t.writes[name])
	}
}
