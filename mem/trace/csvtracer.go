package trace

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
)

// CSVTracer is a hook that writes memory accesses into a CSV file.
type CSVTracer struct {
	path       string
	timeTeller sim.TimeTeller
	file       *os.File
	w          *bufio.Writer

	entries    []memoryAccessEntry
	bufferSize int
}

// NewCSVTracer creates a CSVTracer that writes to path.csv. Init must be
// called before use.
func NewCSVTracer(path string, timeTeller sim.TimeTeller) *CSVTracer {
	return &CSVTracer{
		path:       path,
		timeTeller: timeTeller,
		bufferSize: 1000,
	}
}

// Filename returns the name of the CSV file.
func (t *CSVTracer) Filename() string {
	return t.path + ".csv"
}

// Init creates the CSV file. An empty path picks a unique name. It fails if
// the file already exists.
func (t *CSVTracer) Init() error {
	if t.path == "" {
		t.path = "cosim_memtrace_" + xid.New().String()
	}

	filename := t.Filename()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	t.file = file
	t.w = bufio.NewWriter(file)

	fmt.Fprintf(t.w, "Time, Port, Region, Direction, Address, Data\n")

	atexit.Register(func() { _ = t.Close() })

	return nil
}

// Func buffers the access.
func (t *CSVTracer) Func(ctx hooking.HookCtx) {
	access, ok := ctx.Item.(syncmem.Access)
	if !ok {
		return
	}

	t.entries = append(t.entries, memoryAccessEntry{
		Time:      uint64(t.timeTeller.CurrentTime()),
		Port:      access.Port,
		Region:    access.Region,
		Direction: access.Direction.String(),
		Address:   access.Addr,
		Data:      access.Data,
	})

	if len(t.entries) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered accesses to the file.
func (t *CSVTracer) Flush() {
	if t.w == nil {
		return
	}

	for _, e := range t.entries {
		fmt.Fprintf(t.w, "%d, %s, %s, %s, 0x%04x, 0x%04x\n",
			e.Time, e.Port, e.Region, e.Direction, e.Address, e.Data)
	}

	t.entries = nil
}

// Close flushes the buffered accesses and closes the file. Closing twice
// does nothing.
func (t *CSVTracer) Close() error {
	if t.file == nil {
		return nil
	}

	t.Flush()

	err := t.w.Flush()
	if closeErr := t.file.Close(); err == nil {
		err = closeErr
	}

	t.file = nil
	t.w = nil

	return err
}
