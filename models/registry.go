// Package models provides small hardware models that run under the driver.
//
// They stand in for a compiled RTL model: each one exposes its ports as
// named signals and only changes its registered outputs on a rising clock
// edge.
package models

import (
	"log"
	"sort"

	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/sim"
)

// Region describes one memory a model is connected to.
type Region struct {
	Name     string
	AddrBits uint
	WordBits uint
}

// Descriptor tells the harness how to build and wire a model.
type Descriptor struct {
	Name        string
	Description string
	Regions     []Region
	Ports       []syncmem.PortSpec
	New         func() sim.Model
}

// Region returns the region with the given name.
func (d Descriptor) Region(name string) (Region, bool) {
	for _, r := range d.Regions {
		if r.Name == name {
			return r, true
		}
	}

	return Region{}, false
}

var registry = map[string]Descriptor{}

// Register adds a model to the registry. Registering a name twice panics.
func Register(d Descriptor) {
	if d.Name == "" || d.New == nil {
		log.Panic("model descriptor needs a name and a constructor")
	}

	if _, found := registry[d.Name]; found {
		log.Panicf("model %s registered twice", d.Name)
	}

	for _, p := range d.Ports {
		if _, found := d.Region(p.Region); !found {
			log.Panicf("port %s of model %s uses unknown region %s",
				p.Name, d.Name, p.Region)
		}
	}

	registry[d.Name] = d
}

// Lookup finds a registered model.
func Lookup(name string) (Descriptor, bool) {
	d, found := registry[name]
	return d, found
}

// MustLookup finds a registered model and panics if there is none.
func MustLookup(name string) Descriptor {
	d, found := Lookup(name)
	if !found {
		log.Panicf("unknown model %s", name)
	}

	return d
}

// Names returns the names of all registered models, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func mainRegion(name string) Region {
	return Region{Name: name, AddrBits: 16, WordBits: 16}
}

func init() {
	Register(Descriptor{
		Name:        "idle",
		Description: "clock and reset only, counts cycles and never finishes",
		Regions:     []Region{mainRegion("main")},
		New:         func() sim.Model { return NewIdle() },
	})

	Register(Descriptor{
		Name: "memcopy",
		Description: "copies mem[2] words from mem[mem[0]] to mem[mem[1]] " +
			"through one synchronous port",
		Regions: []Region{mainRegion("main")},
		Ports:   []syncmem.PortSpec{syncmem.DataPort("Data", "main", "")},
		New:     func() sim.Model { return NewMemCopy() },
	})

	Register(Descriptor{
		Name: "checksum",
		Description: "sums rom words up to the first zero and stores " +
			"the sum at ram[0]",
		Regions: []Region{mainRegion("rom"), mainRegion("ram")},
		Ports: []syncmem.PortSpec{
			syncmem.FetchPort("Fetch", "rom", "i"),
			checksumDataPort(),
		},
		New: func() sim.Model { return NewChecksum() },
	})

	Register(Descriptor{
		Name: "directcopy",
		Description: "memcopy calling into memory while it evaluates, " +
			"one word per cycle",
		Regions: []Region{mainRegion("main")},
		New:     func() sim.Model { return NewDirectCopy() },
	})
}
