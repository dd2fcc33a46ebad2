package models

// Idle only takes a clock and a reset. It counts the rising edges seen out
// of reset on its cycles output and never asks to finish.
type Idle struct {
	signalBank

	clk edge
}

// NewIdle creates an Idle model.
func NewIdle() *Idle {
	m := &Idle{}
	m.declare("clk", 1)
	m.declare("rst", 1)
	m.declare("cycles", 32)

	return m
}

// Eval counts a cycle on every rising edge out of reset.
func (m *Idle) Eval() {
	if !m.clk.rising(m.Get("clk")) {
		return
	}

	if m.Get("rst") == 1 {
		m.Set("cycles", 0)
		return
	}

	m.Set("cycles", m.Get("cycles")+1)
}

// Finished is always false.
func (m *Idle) Finished() bool {
	return false
}

// Final does nothing.
func (m *Idle) Final() {}
