package syncmem

import (
	"log"

	"github.com/sarchlab/cosim/mem/storage"
)

// Builder can build Ports.
type Builder struct {
	spec    PortSpec
	storage *storage.Storage
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{
		spec: PortSpec{Clock: "clk"},
	}
}

// WithSpec sets the signals the port is wired to.
func (b Builder) WithSpec(spec PortSpec) Builder {
	b.spec = spec
	return b
}

// WithStorage sets the storage behind the port.
func (b Builder) WithStorage(s *storage.Storage) Builder {
	b.storage = s
	return b
}

// Build builds a new Port. A Port built without a storage gets a fresh
// default one.
func (b Builder) Build(name string) *Port {
	if name == "" {
		log.Panic("memory port must have a name")
	}

	if b.spec.Clock == "" {
		log.Panicf("memory port %s has no clock signal", name)
	}

	p := &Port{
		name:    name,
		spec:    b.spec,
		storage: b.storage,
	}
	p.spec.Name = name

	if p.storage == nil {
		p.storage = storage.NewDefaultStorage()
	}

	return p
}
