// Package harness puts a model, its memories, the tracers and the driver
// together according to a Config, and runs the simulation.
package harness

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/sarchlab/cosim/datarecording"
	"github.com/sarchlab/cosim/driver"
	"github.com/sarchlab/cosim/mem/image"
	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/mem/trace"
	"github.com/sarchlab/cosim/models"
	"github.com/sarchlab/cosim/monitoring"
	"github.com/sarchlab/cosim/sim"
	"github.com/sarchlab/cosim/sim/hooking"
	"github.com/sarchlab/cosim/tracing"
)

// Errors a run can fail with before the simulation starts.
var (
	ErrUnknownModel  = errors.New("unknown model")
	ErrUnknownRegion = errors.New("unknown memory region")
	ErrUsage         = errors.New("usage error")
	ErrHelp          = errors.New("help requested")
)

// ExitCode maps the error of a run to the exit status of the process.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Cause(err) == ErrHelp:
		return 1
	default:
		return 255
	}
}

// A Simulation is a model wired to its memories and a driver, ready to run.
type Simulation struct {
	Config      Config
	Descriptor  models.Descriptor
	Model       sim.Model
	Stores      map[string]*storage.Storage
	Ports       []*syncmem.Port
	Directs     []*syncmem.Direct
	Driver      *driver.Driver
	WordsLoaded int

	stderr   io.Writer
	counter  *trace.CountTracer
	csv      *trace.CSVTracer
	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder
	monitor  *monitoring.Monitor
}

// Run builds the simulation described by c, runs it and tears it down.
// Notices and memory traces go to stderr.
func Run(c Config, stderr io.Writer) (driver.Result, error) {
	s, err := Build(c, stderr)
	if err != nil {
		return driver.Result{}, err
	}

	return s.Run()
}

// Build creates the stores, loads the input image and wires the model, the
// ports, the tracers and the driver together.
func Build(c Config, stderr io.Writer) (*Simulation, error) {
	desc, found := models.Lookup(c.Model)
	if !found {
		return nil, errors.Wrapf(ErrUnknownModel,
			"%s (available: %v)", c.Model, models.Names())
	}

	if c.HalfPeriod == 0 {
		return nil, errors.Wrap(ErrUsage, "half period must be positive")
	}

	s := &Simulation{
		Config:     c,
		Descriptor: desc,
		Stores:     make(map[string]*storage.Storage),
		stderr:     stderr,
	}

	for _, r := range desc.Regions {
		s.Stores[r.Name] = storage.NewStorage(r.AddrBits, r.WordBits)
	}

	imageStore, err := s.imageStore()
	if err != nil {
		return nil, err
	}

	if c.Input != "" {
		s.WordsLoaded, err = image.Load(c.Input, imageStore)
		if err != nil {
			return nil, err
		}
	}

	s.Model = desc.New()
	s.buildPorts()
	s.bindMemories()

	var sink tracing.Sink
	if c.Trace {
		vcd, err := tracing.NewVCDFile(c.VCD, "TOP", s.Model)
		if err != nil {
			return nil, err
		}

		sink = vcd
	}

	b := driver.MakeBuilder().
		WithModel(s.Model).
		WithSink(sink).
		WithCycles(c.Cycles).
		WithHalfPeriod(sim.VTime(c.HalfPeriod)).
		WithResetTime(sim.VTime(c.ResetTime)).
		WithTimeLimit(sim.VTime(c.TimeLimit))

	for _, p := range s.Ports {
		b = b.WithPorts(p)
	}

	if c.Output != "" {
		b = b.WithOutputImage(c.Output, imageStore)
	}

	s.Driver = b.Build("Driver")

	err = s.attachTracers()
	if err != nil {
		if sink != nil {
			_ = sink.Close()
		}

		return nil, err
	}

	s.attachMonitor()

	return s, nil
}

func (s *Simulation) imageStore() (*storage.Storage, error) {
	if len(s.Descriptor.Regions) == 0 {
		if s.Config.Input != "" || s.Config.Output != "" {
			return nil, errors.Wrapf(ErrUnknownRegion,
				"model %s has no memory", s.Descriptor.Name)
		}

		return nil, nil
	}

	region := s.Config.Region
	if region == "" {
		region = s.Descriptor.Regions[0].Name
	}

	store, found := s.Stores[region]
	if !found {
		return nil, errors.Wrapf(ErrUnknownRegion,
			"model %s has no region %s", s.Descriptor.Name, region)
	}

	return store, nil
}

func (s *Simulation) buildPorts() {
	for _, spec := range s.Descriptor.Ports {
		p := syncmem.MakeBuilder().
			WithSpec(spec).
			WithStorage(s.Stores[spec.Region]).
			Build(spec.Name)
		s.Ports = append(s.Ports, p)
	}
}

func (s *Simulation) bindMemories() {
	binder, ok := s.Model.(sim.MemoryBinder)
	if !ok {
		return
	}

	for _, r := range s.Descriptor.Regions {
		d := syncmem.NewDirect(r.Name, r.Name, s.Stores[r.Name])
		binder.BindMemory(r.Name, d)
		s.Directs = append(s.Directs, d)
	}
}

func (s *Simulation) hookables() []hooking.Hookable {
	var hs []hooking.Hookable

	for _, p := range s.Ports {
		hs = append(hs, p)
	}

	for _, d := range s.Directs {
		hs = append(hs, d)
	}

	return hs
}

func (s *Simulation) attachTracers() error {
	var hooks []hooking.Hook

	if s.Config.MemTrace {
		logger := log.New(s.stderr, "", 0)
		s.counter = trace.NewCountTracer()
		hooks = append(hooks, trace.NewLogTracer(logger, s.Driver), s.counter)
	}

	if s.Config.MemDB != "" {
		filename := s.Config.MemDB + ".sqlite3"
		if _, err := os.Stat(filename); err == nil {
			return errors.Errorf("recording database %s already exists",
				filename)
		}

		s.recorder = datarecording.New(s.Config.MemDB)
		s.exec = datarecording.NewExecRecorder(s.recorder)
		hooks = append(hooks, trace.NewDBTracer(s.recorder, s.Driver))
	}

	if s.Config.MemCSV != "" {
		s.csv = trace.NewCSVTracer(s.Config.MemCSV, s.Driver)

		err := s.csv.Init()
		if err != nil {
			if s.recorder != nil {
				_ = s.recorder.Close()
			}

			return err
		}

		hooks = append(hooks, s.csv)
	}

	for _, h := range s.hookables() {
		for _, hook := range hooks {
			h.AcceptHook(hook)
		}
	}

	return nil
}

func (s *Simulation) attachMonitor() {
	if !s.Config.Monitor {
		return
	}

	s.monitor = monitoring.NewMonitor().
		WithPortNumber(s.Config.MonitorPort).
		WithBrowser(s.Config.OpenBrowser)

	s.monitor.RegisterDriver(s.Driver)

	for _, p := range s.Ports {
		s.monitor.RegisterPort(p)
	}

	for name, store := range s.Stores {
		s.monitor.RegisterStorage(name, store)
	}
}

// Run runs the simulation to its end.
func (s *Simulation) Run() (driver.Result, error) {
	if s.monitor != nil {
		err := s.monitor.StartServer()
		if err != nil {
			return driver.Result{}, errors.Wrap(err, "cannot start monitor")
		}

		defer func() { _ = s.monitor.StopServer() }()
	}

	if s.exec != nil {
		s.exec.Start()
		s.exec.Record("Model", s.Config.Model)
	}

	res, err := s.Driver.Run()

	if s.counter != nil {
		s.counter.Report(s.stderr)
	}

	if s.csv != nil {
		closeErr := s.csv.Close()
		if err == nil {
			err = closeErr
		}
	}

	if s.exec != nil {
		s.exec.Record("Halt Reason", res.Reason.String())
		s.exec.Record("Cycles", fmt.Sprint(res.Cycles))
		s.exec.End()

		closeErr := s.recorder.Close()
		if err == nil {
			err = closeErr
		}
	}

	return res, err
}
