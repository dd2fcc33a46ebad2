package syncmem

// PortSpec names the model signals one memory port is wired to.
//
// An empty signal name means the port has no such signal. A port without
// ReadEnable never reads unless Fetch is set; a port without WriteEnable never
// writes. WriteAddr defaults to Addr.
type PortSpec struct {
	Name   string
	Region string

	Clock       string
	Addr        string
	ReadEnable  string
	WriteEnable string
	WriteAddr   string
	WriteData   string
	ReadData    string

	// Fetch marks an instruction-fetch port, which reads on every cycle.
	Fetch bool
}

// DataPort returns the spec of a read/write port using the conventional
// signal names with the given prefix, e.g. "d" gives daddr, dre, dwe,
// dwdata and drdata.
func DataPort(name, region, prefix string) PortSpec {
	return PortSpec{
		Name:        name,
		Region:      region,
		Clock:       "clk",
		Addr:        prefix + "addr",
		ReadEnable:  prefix + "re",
		WriteEnable: prefix + "we",
		WriteData:   prefix + "wdata",
		ReadData:    prefix + "rdata",
	}
}

// FetchPort returns the spec of an instruction-fetch port using the signal
// names <prefix>addr and <prefix>data.
func FetchPort(name, region, prefix string) PortSpec {
	return PortSpec{
		Name:     name,
		Region:   region,
		Clock:    "clk",
		Addr:     prefix + "addr",
		ReadData: prefix + "data",
		Fetch:    true,
	}
}

func (s PortSpec) writeAddr() string {
	if s.WriteAddr != "" {
		return s.WriteAddr
	}

	return s.Addr
}
