package models

import (
	"log"

	"github.com/sarchlab/cosim/sim"
)

// DirectCopy copies memory like MemCopy, but calls into its memory while it
// evaluates instead of going through a clocked port. It moves one word per
// rising edge.
type DirectCopy struct {
	signalBank

	clk     edge
	mem     sim.Memory
	started bool
	done    bool
	src     uint64
	dst     uint64
	count   uint64
	index   uint64
}

// NewDirectCopy creates a DirectCopy model.
func NewDirectCopy() *DirectCopy {
	m := &DirectCopy{}
	m.declare("clk", 1)
	m.declare("rst", 1)
	m.declare("index", 16)
	m.declare("done", 1)

	return m
}

// BindMemory connects the model to its only region, main.
func (m *DirectCopy) BindMemory(region string, mem sim.Memory) {
	if region != "main" {
		log.Panicf("directcopy has no region %s", region)
	}

	m.mem = mem
}

// Eval copies one word on a rising edge.
func (m *DirectCopy) Eval() {
	if !m.clk.rising(m.Get("clk")) {
		return
	}

	if m.Get("rst") == 1 {
		m.started, m.done = false, false
		m.index = 0
		m.Set("index", 0)
		m.Set("done", 0)

		return
	}

	if m.mem == nil {
		log.Panic("directcopy evaluated without memory")
	}

	if !m.started {
		m.src = m.mem.Read(0)
		m.dst = m.mem.Read(1)
		m.count = m.mem.Read(2)
		m.started = true
	}

	if m.index >= m.count {
		m.done = true
		m.Set("done", 1)

		return
	}

	m.mem.Write(m.dst+m.index, m.mem.Read(m.src+m.index))
	m.index++
	m.Set("index", m.index)
}

// Finished reports whether all words have been copied.
func (m *DirectCopy) Finished() bool {
	return m.done
}

// Final does nothing.
func (m *DirectCopy) Final() {}
