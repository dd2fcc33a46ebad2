// Package driver toggles the clock of a hardware model, sequences its reset
// and runs the memory ports every half cycle until the simulation halts.
package driver

import (
	"github.com/sarchlab/cosim/mem/image"
	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
	"github.com/sarchlab/cosim/tracing"
)

// HookPosHalfCycle is invoked after every half cycle, once the ports have
// been updated and the trace has been dumped. The item is a HalfCycle.
var HookPosHalfCycle = &hooking.HookPos{Name: "HalfCycle"}

// HookPosHalted is invoked once, after the simulation has halted and the
// output image has been dumped. The item is the Result.
var HookPosHalted = &hooking.HookPos{Name: "Halted"}

// State is the phase the driver is in.
type State int

// The states of a Driver.
const (
	StateReset State = iota
	StateRunning
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "reset"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// HaltReason tells why a run ended.
type HaltReason int

// The reasons a run can end for.
const (
	HaltNone HaltReason = iota
	HaltFinish
	HaltCycleBudget
	HaltTimeLimit
)

func (r HaltReason) String() string {
	switch r {
	case HaltFinish:
		return "finish"
	case HaltCycleBudget:
		return "cycle budget"
	case HaltTimeLimit:
		return "time limit"
	default:
		return "none"
	}
}

// HalfCycle is what the driver reports after each half cycle.
type HalfCycle struct {
	Now   sim.VTime
	Clock uint64
	Reset uint64
	State State
}

// Result summarizes a run.
type Result struct {
	Reason     HaltReason
	Now        sim.VTime
	Cycles     uint64
	HalfCycles uint64
}

// A Port is updated once every half cycle, after the model has evaluated.
type Port interface {
	Update(m sim.Model)
}

// A Driver owns the clock, the reset line and the simulated time of one
// model.
type Driver struct {
	hooking.HookableBase

	name        string
	model       sim.Model
	ports       []Port
	sink        tracing.Sink
	clockSignal string
	resetSignal string
	halfPeriod  sim.VTime
	resetTime   sim.VTime
	timeLimit   sim.VTime

	outputPath    string
	outputStorage *storage.Storage

	state      State
	now        sim.VTime
	clock      uint64
	reset      uint64
	budget     uint64
	limited    bool
	cycles     uint64
	halfCycles uint64
	reason     HaltReason
}

// Name returns the name of the driver.
func (d *Driver) Name() string {
	return d.name
}

// CurrentTime returns the simulated time.
func (d *Driver) CurrentTime() sim.VTime {
	return d.now
}

// State returns the phase the driver is in.
func (d *Driver) State() State {
	return d.state
}

// Clock returns the current level of the clock.
func (d *Driver) Clock() uint64 {
	return d.clock
}

// Reset returns the current level of the reset line.
func (d *Driver) Reset() uint64 {
	return d.reset
}

// Cycles returns the number of full clock cycles run so far.
func (d *Driver) Cycles() uint64 {
	return d.cycles
}

// RemainingCycles returns the unused cycle budget and whether a budget was
// set at all.
func (d *Driver) RemainingCycles() (uint64, bool) {
	return d.budget, d.limited
}

// Model returns the model being driven.
func (d *Driver) Model() sim.Model {
	return d.model
}

// Run steps the model until it finishes, the cycle budget is used up or
// the time limit is passed. It returns an error only if the output image
// cannot be written.
func (d *Driver) Run() (Result, error) {
	if d.state == StateHalted {
		return d.result(), nil
	}

	for d.reason == HaltNone {
		if d.model.Finished() {
			d.reason = HaltFinish
			break
		}

		d.Step()
	}

	return d.halt()
}

// Step runs one half cycle. Stepping a halted driver does nothing.
func (d *Driver) Step() {
	if d.state == StateHalted || d.reason != HaltNone {
		return
	}

	d.clock ^= 1
	d.model.Set(d.clockSignal, d.clock)
	d.model.Eval()

	d.now += d.halfPeriod
	d.halfCycles++

	if d.now > d.resetTime && d.state == StateReset {
		d.reset = 0
		d.model.Set(d.resetSignal, 0)
		d.state = StateRunning
	}

	for _, p := range d.ports {
		p.Update(d.model)
	}

	if d.sink != nil {
		d.sink.Dump(d.now)
	}

	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    HookPosHalfCycle,
		Item: HalfCycle{
			Now:   d.now,
			Clock: d.clock,
			Reset: d.reset,
			State: d.state,
		},
	})

	if d.clock == 0 {
		d.cycles++
		d.countDownBudget()
	}

	if d.reason == HaltNone && d.now > d.timeLimit {
		d.reason = HaltTimeLimit
	}
}

func (d *Driver) countDownBudget() {
	if !d.limited || d.budget == 0 {
		return
	}

	d.budget--
	if d.budget == 0 {
		d.reason = HaltCycleBudget
	}
}

func (d *Driver) halt() (Result, error) {
	d.state = StateHalted
	d.model.Final()

	var err error
	if d.sink != nil {
		err = d.sink.Close()
	}

	if d.outputPath != "" {
		dumpErr := image.Dump(d.outputPath, d.outputStorage)
		if dumpErr != nil {
			err = dumpErr
		}
	}

	res := d.result()
	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    HookPosHalted,
		Item:   res,
	})

	return res, err
}

func (d *Driver) result() Result {
	return Result{
		Reason:     d.reason,
		Now:        d.now,
		Cycles:     d.cycles,
		HalfCycles: d.halfCycles,
	}
}
