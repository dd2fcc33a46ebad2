// Package tracing records the signals of a model over simulated time.
package tracing

import "github.com/sarchlab/cosim/sim"

// A Sink receives one sample per half clock cycle.
type Sink interface {
	// Dump records the model's signals at the given time.
	Dump(now sim.VTime)

	// Close finishes the trace. It returns the first error met while
	// recording.
	Close() error
}
