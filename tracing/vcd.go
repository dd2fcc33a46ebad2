package tracing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sarchlab/cosim/sim"
)

// VCDWriter is a Sink that writes a Value Change Dump.
//
// Every signal the model lists is declared once in the header, written by the
// first Dump or, if there is none, by Close. The first Dump writes all values;
// later Dumps only write the signals that changed.
type VCDWriter struct {
	w      *bufio.Writer
	closer io.Closer

	model     sim.Model
	scope     string
	timescale string
	signals   []sim.SignalDesc
	ids       []string
	last      []uint64

	started bool
	err     error
}

// NewVCDWriter creates a VCDWriter that writes to w. If w is an io.Closer it
// is closed by Close.
func NewVCDWriter(w io.Writer, scope string, model sim.SignalLister) *VCDWriter {
	v := &VCDWriter{
		w:         bufio.NewWriter(w),
		scope:     scope,
		timescale: "1ns",
		signals:   model.Signals(),
	}

	if c, ok := w.(io.Closer); ok {
		v.closer = c
	}

	if m, ok := model.(sim.Model); ok {
		v.model = m
	}

	v.ids = make([]string, len(v.signals))
	for i := range v.signals {
		v.ids[i] = identifier(i)
	}

	v.last = make([]uint64, len(v.signals))

	return v
}

// NewVCDFile creates the file at path and returns a VCDWriter on it. The
// model must list its signals.
func NewVCDFile(path, scope string, model sim.Model) (*VCDWriter, error) {
	lister, ok := model.(sim.SignalLister)
	if !ok {
		return nil, errors.Errorf("model %T cannot list its signals", model)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open trace file '%s'", path)
	}

	return NewVCDWriter(f, scope, lister), nil
}

// identifier encodes n with the printable characters VCD allows in
// identifier codes.
func identifier(n int) string {
	const first, count = '!', '~' - '!' + 1

	id := []byte{}
	for {
		id = append(id, byte(first+n%count))
		n = n/count - 1

		if n < 0 {
			return string(id)
		}
	}
}

// Dump writes the values at time now.
func (v *VCDWriter) Dump(now sim.VTime) {
	if v.err != nil || v.model == nil {
		return
	}

	if !v.started {
		v.writeHeader()
		v.printf("#%d\n$dumpvars\n", now)

		for i := range v.signals {
			v.last[i] = v.model.Get(v.signals[i].Name)
			v.writeValue(i)
		}

		v.printf("$end\n")
		v.started = true

		return
	}

	timeWritten := false

	for i := range v.signals {
		value := v.model.Get(v.signals[i].Name)
		if value == v.last[i] {
			continue
		}

		if !timeWritten {
			v.printf("#%d\n", now)
			timeWritten = true
		}

		v.last[i] = value
		v.writeValue(i)
	}
}

func (v *VCDWriter) writeHeader() {
	v.printf("$version cosim $end\n")
	v.printf("$timescale %s $end\n", v.timescale)
	v.printf("$scope module %s $end\n", v.scope)

	for i, s := range v.signals {
		v.printf("$var wire %d %s %s $end\n", width(s), v.ids[i], s.Name)
	}

	v.printf("$upscope $end\n")
	v.printf("$enddefinitions $end\n")
}

func width(s sim.SignalDesc) int {
	if s.Width <= 0 {
		return 1
	}

	return s.Width
}

func (v *VCDWriter) writeValue(i int) {
	value := v.last[i]

	if width(v.signals[i]) == 1 {
		v.printf("%d%s\n", value&1, v.ids[i])
		return
	}

	v.printf("b%s %s\n", strconv.FormatUint(value, 2), v.ids[i])
}

func (v *VCDWriter) printf(format string, args ...any) {
	if v.err != nil {
		return
	}

	_, v.err = fmt.Fprintf(v.w, format, args...)
}

// Close flushes the trace and closes the underlying writer. A trace that
// was never dumped still gets its header, so the file declares the signals.
func (v *VCDWriter) Close() error {
	if !v.started {
		v.writeHeader()
		v.started = true
	}

	err := v.w.Flush()
	if v.err == nil {
		v.err = err
	}

	if v.closer != nil {
		err = v.closer.Close()
		if v.err == nil {
			v.err = err
		}
	}

	return v.err
}
