package syncmem

import (
	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/sim/hooking"
)

// Direct gives a model unclocked access to a storage. Models that call into
// memory while they evaluate use it instead of a Port; the timing is then up
// to the model. Accesses invoke the same hooks as a Port.
type Direct struct {
	hooking.HookableBase

	name    string
	region  string
	storage *storage.Storage
}

// NewDirect creates a Direct accessor named name over the storage of a
// region.
func NewDirect(name, region string, s *storage.Storage) *Direct {
	return &Direct{
		name:    name,
		region:  region,
		storage: s,
	}
}

// Name returns the name of the accessor.
func (d *Direct) Name() string {
	return d.name
}

// Read returns the word at addr.
func (d *Direct) Read(addr uint64) uint64 {
	addr &= d.storage.AddrMask()
	data := d.storage.Read(addr)

	d.invoke(HookPosRead, Read, addr, data)

	return data
}

// Write stores data at addr.
func (d *Direct) Write(addr, data uint64) {
	addr &= d.storage.AddrMask()
	d.storage.Write(addr, data)

	d.invoke(HookPosWrite, Write, addr, d.storage.Read(addr))
}

func (d *Direct) invoke(
	pos *hooking.HookPos,
	dir Direction,
	addr, data uint64,
) {
	if d.NumHooks() == 0 {
		return
	}

	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    pos,
		Item: Access{
			Port:      d.name,
			Region:    d.region,
			Direction: dir,
			Addr:      addr,
			Data:      data,
		},
	})
}
