package models

type memCopyState int

const (
	memCopyStart memCopyState = iota
	memCopyHeaderWait
	memCopyHeaderLatch
	memCopyReadWait
	memCopyReadLatch
	memCopyWriteDone
	memCopyDone
)

// MemCopy is a DMA engine behind one synchronous read/write port.
//
// Out of reset it reads a header of three words at address 0: source,
// destination and count. It then copies count words, one read and one write
// at a time, and finishes. A read issued on one rising edge is served on the
// next, so its data is sampled on the edge after that.
type MemCopy struct {
	signalBank

	clk    edge
	state  memCopyState
	header [3]uint64
	index  uint64
}

// NewMemCopy creates a MemCopy model.
func NewMemCopy() *MemCopy {
	m := &MemCopy{}
	m.declare("clk", 1)
	m.declare("rst", 1)
	m.declare("addr", 16)
	m.declare("re", 1)
	m.declare("we", 1)
	m.declare("wdata", 16)
	m.declare("rdata", 16)
	m.declare("done", 1)

	return m
}

// Eval advances the state machine on a rising edge.
func (m *MemCopy) Eval() {
	if !m.clk.rising(m.Get("clk")) {
		return
	}

	if m.Get("rst") == 1 {
		m.reset()
		return
	}

	switch m.state {
	case memCopyStart:
		m.issueRead(0)
		m.state = memCopyHeaderWait
	case memCopyHeaderWait:
		m.idle()
		m.state = memCopyHeaderLatch
	case memCopyHeaderLatch:
		m.latchHeader()
	case memCopyReadWait:
		m.idle()
		m.state = memCopyReadLatch
	case memCopyReadLatch:
		m.issueWrite(m.dst()+m.index, m.Get("rdata"))
		m.state = memCopyWriteDone
	case memCopyWriteDone:
		m.idle()
		m.index++
		m.nextCopy()
	case memCopyDone:
	}
}

func (m *MemCopy) reset() {
	m.state = memCopyStart
	m.header = [3]uint64{}
	m.index = 0
	m.idle()
	m.Set("addr", 0)
	m.Set("wdata", 0)
	m.Set("done", 0)
}

func (m *MemCopy) latchHeader() {
	m.header[m.index] = m.Get("rdata")
	m.index++

	if m.index < uint64(len(m.header)) {
		m.issueRead(m.index)
		m.state = memCopyHeaderWait

		return
	}

	m.index = 0
	m.nextCopy()
}

func (m *MemCopy) nextCopy() {
	if m.index >= m.count() {
		m.state = memCopyDone
		m.Set("done", 1)

		return
	}

	m.issueRead(m.src() + m.index)
	m.state = memCopyReadWait
}

func (m *MemCopy) issueRead(addr uint64) {
	m.Set("addr", addr)
	m.Set("re", 1)
	m.Set("we", 0)
}

func (m *MemCopy) issueWrite(addr, data uint64) {
	m.Set("addr", addr)
	m.Set("wdata", data)
	m.Set("re", 0)
	m.Set("we", 1)
}

func (m *MemCopy) idle() {
	m.Set("re", 0)
	m.Set("we", 0)
}

func (m *MemCopy) src() uint64   { return m.header[0] }
func (m *MemCopy) dst() uint64   { return m.header[1] }
func (m *MemCopy) count() uint64 { return m.header[2] }

// Finished reports whether the copy is complete.
func (m *MemCopy) Finished() bool {
	return m.state == memCopyDone
}

// Final does nothing.
func (m *MemCopy) Final() {}
