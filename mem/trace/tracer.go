// Package trace provides hooks that record the accesses of memory ports.
package trace

import (
	"log"

	"github.com/sarchlab/cosim/datarecording"
	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
)

// memoryAccessEntry represents a memory access in the database.
type memoryAccessEntry struct {
	Time      uint64
	Port      string
	Region    string
	Direction string
	Address   uint64
	Data      uint64
}

// A logTracer is a hook that prints every memory access.
type logTracer struct {
	timeTeller sim.TimeTeller
	logger     *log.Logger
}

// NewLogTracer creates a hook that prints one line per memory access, in the
// form "<time> R|W <port>: addr 0x0000, data 0x0000".
func NewLogTracer(logger *log.Logger, timeTeller sim.TimeTeller) hooking.Hook {
	return &logTracer{
		timeTeller: timeTeller,
		logger:     logger,
	}
}

// Func prints the access.
func (t *logTracer) Func(ctx hooking.HookCtx) {
	access, ok := ctx.Item.(syncmem.Access)
	if !ok {
		return
	}

	t.logger.Printf("%d %s %s: addr 0x%04x, data 0x%04x\n",
		t.timeTeller.CurrentTime(),
		access.Direction,
		access.Port,
		access.Addr,
		access.Data,
	)
}

// A dbTracer is a hook that records memory accesses into a database.
type dbTracer struct {
	timeTeller   sim.TimeTeller
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a hook that stores every memory access in the
// memory_accesses table of the data recorder.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	timeTeller sim.TimeTeller,
) hooking.Hook {
	t := &dbTracer{
		timeTeller:   timeTeller,
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable("memory_accesses", memoryAccessEntry{})

	return t
}

// Func records the access.
func (t *dbTracer) Func(ctx hooking.HookCtx) {
	access, ok := ctx.Item.(syncmem.Access)
	if !ok {
		return
	}

	t.dataRecorder.InsertData("memory_accesses", memoryAccessEntry{
		Time:      uint64(t.timeTeller.CurrentTime()),
		Port:      access.Port,
		Region:    access.Region,
		Direction: access.Direction.String(),
		Address:   access.Addr,
		Data:      access.Data,
	})
}
