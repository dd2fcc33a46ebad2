package driver

import (
	"log"

	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/tracing"
)

// Builder can build drivers.
type Builder struct {
	model         sim.Model
	ports         []Port
	sink          tracing.Sink
	clockSignal   string
	resetSignal   string
	halfPeriod    sim.VTime
	resetTime     sim.VTime
	timeLimit     sim.VTime
	cycles        uint64
	outputPath    string
	outputStorage *storage.Storage
}

// MakeBuilder returns a Builder with the default timing: a half period of
// 5, reset held until time 20 and a time limit of 10^8.
func MakeBuilder() Builder {
	return Builder{
		clockSignal: "clk",
		resetSignal: "rst",
		halfPeriod:  5,
		resetTime:   20,
		timeLimit:   10000000 * 10,
	}
}

// WithModel sets the model to drive.
func (b Builder) WithModel(m sim.Model) Builder {
	b.model = m
	return b
}

// WithPorts adds ports to update every half cycle. Ports are updated in
// the order they are added.
func (b Builder) WithPorts(ports ...Port) Builder {
	b.ports = append(append([]Port(nil), b.ports...), ports...)
	return b
}

// WithSink sets where the signals are traced to.
func (b Builder) WithSink(s tracing.Sink) Builder {
	b.sink = s
	return b
}

// WithClockSignal sets the name of the model's clock input.
func (b Builder) WithClockSignal(name string) Builder {
	b.clockSignal = name
	return b
}

// WithResetSignal sets the name of the model's reset input.
func (b Builder) WithResetSignal(name string) Builder {
	b.resetSignal = name
	return b
}

// WithHalfPeriod sets how much time passes per clock toggle.
func (b Builder) WithHalfPeriod(t sim.VTime) Builder {
	b.halfPeriod = t
	return b
}

// WithResetTime sets the time until which reset stays asserted.
func (b Builder) WithResetTime(t sim.VTime) Builder {
	b.resetTime = t
	return b
}

// WithTimeLimit sets the time after which the run stops.
func (b Builder) WithTimeLimit(t sim.VTime) Builder {
	b.timeLimit = t
	return b
}

// WithCycles sets the cycle budget. Zero means unbounded.
func (b Builder) WithCycles(n uint64) Builder {
	b.cycles = n
	return b
}

// WithOutputImage makes the driver dump s to path after halting.
func (b Builder) WithOutputImage(path string, s *storage.Storage) Builder {
	b.outputPath = path
	b.outputStorage = s
	return b
}

// Build creates a driver with the given name. The model's clock is driven
// low and its reset high.
func (b Builder) Build(name string) *Driver {
	b.mustBeValid()

	d := &Driver{
		name:          name,
		model:         b.model,
		ports:         b.ports,
		sink:          b.sink,
		clockSignal:   b.clockSignal,
		resetSignal:   b.resetSignal,
		halfPeriod:    b.halfPeriod,
		resetTime:     b.resetTime,
		timeLimit:     b.timeLimit,
		outputPath:    b.outputPath,
		outputStorage: b.outputStorage,
		state:         StateReset,
		reset:         1,
		budget:        b.cycles,
		limited:       b.cycles > 0,
	}

	d.model.Set(d.resetSignal, 1)
	d.model.Set(d.clockSignal, 0)

	return d
}

func (b Builder) mustBeValid() {
	if b.model == nil {
		log.Panic("driver needs a model")
	}

	if b.halfPeriod == 0 {
		log.Panic("half period must be positive")
	}

	if b.outputPath != "" && b.outputStorage == nil {
		log.Panic("output image needs a storage")
	}
}
