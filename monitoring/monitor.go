// Package monitoring turns a running co-simulation into a web server that
// can be inspected from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cosim/driver"
	"github.com/sarchlab/cosim/mem/storage"
	"github.com/sarchlab/cosim/mem/syncmem"
	"github.com/sarchlab/cosim/monitoring/web"
	"github.com/sarchlab/cosim/sim/hooking"
)

const maxMemoryWords = 256

// Monitor serves the state of a simulation over HTTP.
//
// The simulation state is only touched by the driver loop. Requests that
// need it are handed to the loop, which runs them between two half cycles
// through the monitor's hook. Once the driver has halted, such requests are
// answered with 503.
type Monitor struct {
	portNumber  int
	openBrowser bool

	driver *driver.Driver
	ports  []*syncmem.Port
	stores map[string]*storage.Storage

	queries  chan query
	halted   chan struct{}
	haltOnce sync.Once
	progress *ProgressBar

	listener net.Listener
}

type query struct {
	fn   func()
	done chan struct{}
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		stores:  make(map[string]*storage.Storage),
		queries: make(chan query),
		halted:  make(chan struct{}),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterDriver registers the driver of the simulation. The monitor is
// attached to the driver as a hook.
func (m *Monitor) RegisterDriver(d *driver.Driver) {
	m.driver = d
	d.AcceptHook(m)

	if remaining, limited := d.RemainingCycles(); limited {
		m.progress = NewProgressBar("cycles", remaining)
	}
}

// RegisterPort registers a memory port to be inspected.
func (m *Monitor) RegisterPort(p *syncmem.Port) {
	m.ports = append(m.ports, p)
}

// RegisterStorage registers the storage of a memory region.
func (m *Monitor) RegisterStorage(region string, s *storage.Storage) {
	m.stores[region] = s
}

// Func runs the pending requests after every half cycle and stops serving
// simulation state once the driver halts.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case driver.HookPosHalfCycle:
		m.updateProgress()
		m.drain()
	case driver.HookPosHalted:
		m.haltOnce.Do(func() { close(m.halted) })
	}
}

func (m *Monitor) drain() {
	for {
		select {
		case q := <-m.queries:
			q.fn()
			close(q.done)
		default:
			return
		}
	}
}

func (m *Monitor) updateProgress() {
	if m.progress == nil {
		return
	}

	m.progress.SetFinished(m.driver.Cycles())
}

// inLoop runs fn on the driver loop. It returns false, after answering 503,
// if the simulation has already halted.
func (m *Monitor) inLoop(w http.ResponseWriter, fn func()) bool {
	q := query{fn: fn, done: make(chan struct{})}

	select {
	case m.queries <- q:
	case <-m.halted:
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte("Simulation has halted"))
		dieOnErr(err)

		return false
	}

	<-q.done

	return true
}

// URL returns the address the server listens on, or an empty string if the
// server is not started.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/list_ports", m.listPorts)
	r.HandleFunc("/api/port/{name}", m.portDetails)
	r.HandleFunc("/api/memory/{region}/{addr}", m.memory)
	r.HandleFunc("/api/progress", m.listProgress)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() error {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return err
	}

	m.listener = listener

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.URL())

	go func() {
		err := http.Serve(listener, m.router())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Panic(err)
		}
	}()

	if m.openBrowser {
		err = browser.OpenURL(m.URL())
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
		}
	}

	return nil
}

// StopServer closes the listener.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var now uint64

	if !m.inLoop(w, func() { now = uint64(m.driver.CurrentTime()) }) {
		return
	}

	fmt.Fprintf(w, "{\"now\":%d}", now)
}

type statusRsp struct {
	State     string `json:"state"`
	Now       uint64 `json:"now"`
	Cycles    uint64 `json:"cycles"`
	Remaining uint64 `json:"remaining,omitempty"`
	Clock     uint64 `json:"clk"`
	Reset     uint64 `json:"rst"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{}

	ok := m.inLoop(w, func() {
		rsp.State = m.driver.State().String()
		rsp.Now = uint64(m.driver.CurrentTime())
		rsp.Cycles = m.driver.Cycles()
		rsp.Remaining, _ = m.driver.RemainingCycles()
		rsp.Clock = m.driver.Clock()
		rsp.Reset = m.driver.Reset()
	})
	if !ok {
		return
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listPorts(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, len(m.ports))
	for i, p := range m.ports {
		names[i] = p.Name()
	}

	writeJSON(w, names)
}

func (m *Monitor) findPortOr404(
	w http.ResponseWriter,
	name string,
) *syncmem.Port {
	for _, p := range m.ports {
		if p.Name() == name {
			return p
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Port not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) portDetails(w http.ResponseWriter, r *http.Request) {
	port := m.findPortOr404(w, mux.Vars(r)["name"])
	if port == nil {
		return
	}

	buf := bytes.NewBuffer(nil)
	var err error

	ok := m.inLoop(w, func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(port)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})
	if !ok {
		return
	}

	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

type memoryRsp struct {
	Region string   `json:"region"`
	Addr   uint64   `json:"addr"`
	Words  []uint64 `json:"words"`
}

func (m *Monitor) memory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s, found := m.stores[vars["region"]]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Region not found"))
		dieOnErr(err)

		return
	}

	addr, count, err := parseMemoryParams(vars["addr"], r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	rsp := memoryRsp{Region: vars["region"], Addr: addr}

	ok := m.inLoop(w, func() {
		rsp.Words = make([]uint64, count)
		for i := range rsp.Words {
			rsp.Words[i] = s.Read(addr + uint64(i))
		}
	})
	if !ok {
		return
	}

	writeJSON(w, rsp)
}

func parseMemoryParams(
	addrStr string,
	r *http.Request,
) (addr uint64, count int, err error) {
	addr, err = strconv.ParseUint(addrStr, 0, 64)
	if err != nil {
		return 0, 0, err
	}

	count = 1

	countStr := r.URL.Query().Get("count")
	if countStr != "" {
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return 0, 0, err
		}
	}

	if count < 1 || count > maxMemoryWords {
		return 0, 0, fmt.Errorf(
			"count must be between 1 and %d", maxMemoryWords)
	}

	return addr, count, nil
}

func (m *Monitor) listProgress(w http.ResponseWriter, _ *http.Request) {
	bars := []ProgressSnapshot{}
	if m.progress != nil {
		bars = append(bars, m.progress.Snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
