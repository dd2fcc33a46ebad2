package models

import "github.com/sarchlab/cosim/sim"

// signalBank holds the named signals of a model. Values are masked to the
// declared width on every Set.
type signalBank struct {
	descs  []sim.SignalDesc
	index  map[string]int
	values []uint64
	masks  []uint64
}

func (b *signalBank) declare(name string, width int) {
	if b.index == nil {
		b.index = make(map[string]int)
	}

	if _, found := b.index[name]; found {
		panic("signal " + name + " declared twice")
	}

	b.index[name] = len(b.descs)
	b.descs = append(b.descs, sim.SignalDesc{Name: name, Width: width})
	b.values = append(b.values, 0)

	mask := ^uint64(0)
	if width < 64 {
		mask = 1<<uint(width) - 1
	}

	b.masks = append(b.masks, mask)
}

// Set drives a signal. Unknown signals are ignored.
func (b *signalBank) Set(signal string, value uint64) {
	i, found := b.index[signal]
	if !found {
		return
	}

	b.values[i] = value & b.masks[i]
}

// Get returns the value of a signal, 0 for unknown signals.
func (b *signalBank) Get(signal string) uint64 {
	i, found := b.index[signal]
	if !found {
		return 0
	}

	return b.values[i]
}

// Signals lists the declared signals in declaration order.
func (b *signalBank) Signals() []sim.SignalDesc {
	return append([]sim.SignalDesc(nil), b.descs...)
}

// edge tracks a clock input and reports rising transitions.
type edge struct {
	last uint64
}

func (e *edge) rising(clk uint64) bool {
	r := clk == 1 && e.last == 0
	e.last = clk

	return r
}
