package models

import "github.com/sarchlab/cosim/mem/syncmem"

type checksumState int

const (
	checksumFetching checksumState = iota
	checksumWriting
	checksumDone
)

// Checksum is a Harvard-style model. It streams words from its instruction
// memory through a fetch port, adding them up until it fetches a zero word,
// and then writes the 16-bit sum to address 0 of its data memory.
//
// Fetching is pipelined: an address goes out on every rising edge and the
// word comes back two edges later.
type Checksum struct {
	signalBank

	clk    edge
	state  checksumState
	pc     uint64
	v1, v2 bool
	sum    uint64
}

func checksumDataPort() syncmem.PortSpec {
	return syncmem.PortSpec{
		Name:        "Data",
		Region:      "ram",
		Clock:       "clk",
		Addr:        "daddr",
		WriteEnable: "dwe",
		WriteData:   "dwdata",
	}
}

// NewChecksum creates a Checksum model.
func NewChecksum() *Checksum {
	m := &Checksum{}
	m.declare("clk", 1)
	m.declare("rst", 1)
	m.declare("iaddr", 16)
	m.declare("idata", 16)
	m.declare("daddr", 16)
	m.declare("dwe", 1)
	m.declare("dwdata", 16)
	m.declare("sum", 16)
	m.declare("done", 1)

	return m
}

// Eval advances the pipeline on a rising edge.
func (m *Checksum) Eval() {
	if !m.clk.rising(m.Get("clk")) {
		return
	}

	if m.Get("rst") == 1 {
		m.reset()
		return
	}

	switch m.state {
	case checksumFetching:
		m.fetch()
	case checksumWriting:
		m.Set("dwe", 0)
		m.Set("done", 1)
		m.state = checksumDone
	case checksumDone:
	}
}

func (m *Checksum) fetch() {
	if m.v2 {
		word := m.Get("idata")
		if word == 0 {
			m.Set("daddr", 0)
			m.Set("dwdata", m.sum)
			m.Set("dwe", 1)
			m.state = checksumWriting

			return
		}

		m.sum = (m.sum + word) & 0xffff
		m.Set("sum", m.sum)
	}

	m.v2 = m.v1
	m.Set("iaddr", m.pc)
	m.pc++
	m.v1 = true
}

func (m *Checksum) reset() {
	m.state = checksumFetching
	m.pc = 0
	m.v1, m.v2 = false, false
	m.sum = 0

	m.Set("iaddr", 0)
	m.Set("daddr", 0)
	m.Set("dwe", 0)
	m.Set("dwdata", 0)
	m.Set("sum", 0)
	m.Set("done", 0)
}

// Finished reports whether the sum has been written.
func (m *Checksum) Finished() bool {
	return m.state == checksumDone
}

// Final does nothing.
func (m *Checksum) Final() {}
