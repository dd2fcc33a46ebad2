// Package syncmem emulates synchronous (registered) memory ports on top of a
// Storage.
//
// A synchronous memory samples its address and control inputs on a rising
// clock edge and presents the read data after that edge. The model sees the
// data one cycle after it presented the address. A Port reproduces this by
// latching the signals it observes on every half cycle and acting on the
// latched values when the next sample shows a rising edge.
package syncmem

import (
	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
)

// Sample is the value of a port's signals at one half cycle.
type Sample struct {
	Clock       uint64
	Addr        uint64
	ReadEnable  bool
	WriteEnable bool
	WriteAddr   uint64
	WriteData   uint64
}

// Latch is what a port remembers from the previous half cycle.
type Latch Sample

// A Port is one memory port of the model, backed by a Storage.
type Port struct {
	hooking.HookableBase

	name    string
	spec    PortSpec
	storage *storage.Storage

	latch  Latch
	data   uint64
	reads  uint64
	writes uint64
}

// Name returns the name of the port.
func (p *Port) Name() string {
	return p.name
}

// Spec returns the signals the port is wired to.
func (p *Port) Spec() PortSpec {
	return p.spec
}

// Storage returns the storage behind the port.
func (p *Port) Storage() *storage.Storage {
	return p.storage
}

// Latch returns the signals sampled at the previous half cycle.
func (p *Port) Latch() Latch {
	return p.latch
}

// Data returns the read-data register, the value driven onto the model.
func (p *Port) Data() uint64 {
	return p.data
}

// NumReads returns the number of reads performed so far.
func (p *Port) NumReads() uint64 {
	return p.reads
}

// NumWrites returns the number of writes performed so far.
func (p *Port) NumWrites() uint64 {
	return p.writes
}

// Update samples the port signals of m, performs the memory access due at
// this half cycle, and drives the read-data signal back onto m.
func (p *Port) Update(m sim.Model) {
	p.Step(p.sample(m))

	if p.spec.ReadData != "" {
		m.Set(p.spec.ReadData, p.data)
	}
}

func (p *Port) sample(m sim.Model) Sample {
	s := Sample{
		Clock: get(m, p.spec.Clock) & 1,
		Addr:  get(m, p.spec.Addr),
	}

	if p.spec.Fetch {
		s.ReadEnable = true
	} else {
		s.ReadEnable = get(m, p.spec.ReadEnable)&1 == 1
	}

	s.WriteEnable = get(m, p.spec.WriteEnable)&1 == 1
	s.WriteAddr = get(m, p.spec.writeAddr())
	s.WriteData = get(m, p.spec.WriteData)

	return s
}

func get(m sim.Model, signal string) uint64 {
	if signal == "" {
		return 0
	}

	return m.Get(signal)
}

// Step advances the port by one half cycle.
//
// When s shows a rising edge relative to the latch, the read and the write
// recorded in the latch are carried out, the read first. The latch then takes
// the value of s. Step reports whether a read was carried out and returns the
// read-data register, which holds its value until the next read.
func (p *Port) Step(s Sample) (data uint64, fired bool) {
	rising := s.Clock == 1 && s.Clock != p.latch.Clock

	if rising {
		if p.latch.ReadEnable {
			p.read()
			fired = true
		}

		if p.latch.WriteEnable {
			p.write()
		}
	}

	p.latch = Latch(s)

	return p.data, fired
}

func (p *Port) read() {
	addr := p.latch.Addr & p.storage.AddrMask()
	p.data = p.storage.Read(addr)
	p.reads++

	p.invoke(HookPosRead, Access{
		Port:      p.name,
		Region:    p.spec.Region,
		Direction: Read,
		Addr:      addr,
		Data:      p.data,
	})
}

func (p *Port) write() {
	addr := p.latch.WriteAddr & p.storage.AddrMask()
	p.storage.Write(addr, p.latch.WriteData)
	p.writes++

	p.invoke(HookPosWrite, Access{
		Port:      p.name,
		Region:    p.spec.Region,
		Direction: Write,
		Addr:      addr,
		Data:      p.storage.Read(addr),
	})
}

func (p *Port) invoke(pos *hooking.HookPos, a Access) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(hooking.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   a,
	})
}
