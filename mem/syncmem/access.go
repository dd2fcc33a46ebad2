package syncmem

import "github.com/sarchlab/cosim/sim/hooking"

// Hook positions invoked by Port and Direct. The hook item is an Access.
var (
	HookPosRead  = &hooking.HookPos{Name: "MemRead"}
	HookPosWrite = &hooking.HookPos{Name: "MemWrite"}
)

// Direction tells whether an access reads or writes the storage.
type Direction int

// Access directions.
const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "W"
	}

	return "R"
}

// Access describes one word moving between a port and its storage.
type Access struct {
	Port      string
	Region    string
	Direction Direction
	Addr      uint64
	Data      uint64
}
