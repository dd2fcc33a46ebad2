// Package sim defines what the harness needs to know about a hardware model
// under verification and about simulated time.
package sim

// A Model is a hardware model that exposes its ports as named signals.
//
// The driver sets input signals, calls Eval once per half clock cycle and
// reads output signals back. Signal values are plain unsigned integers; a
// single-bit signal is either 0 or 1. Reading a signal the model does not
// have returns 0 and setting it is a no-op.
type Model interface {
	// Set drives an input signal. The model observes the value at the next
	// Eval.
	Set(signal string, value uint64)

	// Get returns the current value of a signal.
	Get(signal string) uint64

	// Eval settles the model after its inputs have changed.
	Eval()

	// Finished reports whether the model has requested the simulation to
	// end.
	Finished() bool

	// Final runs the model's end-of-simulation actions. It is called exactly
	// once, after the last Eval.
	Final()
}

// SignalDesc describes one signal of a model.
type SignalDesc struct {
	Name  string
	Width int
}

// A SignalLister can enumerate its signals. Waveform tracing is only
// possible for models that implement it.
type SignalLister interface {
	Signals() []SignalDesc
}

// Memory is word-addressed storage accessed without any clocking. It is
// what a model that calls into memory during Eval is bound to.
type Memory interface {
	Read(addr uint64) uint64
	Write(addr, data uint64)
}

// A MemoryBinder is a model that reaches its memories through direct calls
// instead of signals. The harness binds one Memory per region before the
// simulation starts.
type MemoryBinder interface {
	BindMemory(region string, m Memory)
}
