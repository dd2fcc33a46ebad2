package harness

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is everything a run needs to know. It is not changed once the run
// starts.
type Config struct {
	// Model is the name of a registered model.
	Model string

	// Region is the memory region images are loaded into and dumped from.
	// Empty means the model's first region.
	Region string

	Input  string
	Output string

	// Cycles is the cycle budget. Zero means unbounded.
	Cycles uint64

	Trace bool
	VCD   string

	MemTrace bool

	// MemDB names a SQLite database that memory accesses are recorded
	// into. Empty disables recording.
	MemDB string

	// MemCSV names a CSV file, without extension, that memory accesses are
	// written into. Empty disables it.
	MemCSV string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	HalfPeriod uint64
	ResetTime  uint64
	TimeLimit  uint64
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Model:      "memcopy",
		Trace:      true,
		VCD:        "trace.vcd",
		HalfPeriod: 5,
		ResetTime:  20,
		TimeLimit:  10000000 * 10,
	}
}

// ConfigFromEnv returns the default configuration overridden by COSIM_*
// environment variables. The given files, or .env if none is given, are
// loaded into the environment first; missing files are skipped and
// variables already set are kept.
func ConfigFromEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "cannot load %s", f)
		}
	}

	c := DefaultConfig()
	r := envReader{}

	r.str("COSIM_MODEL", &c.Model)
	r.str("COSIM_REGION", &c.Region)
	r.str("COSIM_INPUT", &c.Input)
	r.str("COSIM_OUTPUT", &c.Output)
	r.uint("COSIM_CYCLES", &c.Cycles)
	r.str("COSIM_VCD", &c.VCD)
	r.notBool("COSIM_NOTRACE", &c.Trace)
	r.bool("COSIM_MEMTRACE", &c.MemTrace)
	r.str("COSIM_MEMDB", &c.MemDB)
	r.str("COSIM_MEMCSV", &c.MemCSV)
	r.bool("COSIM_MONITOR", &c.Monitor)
	r.int("COSIM_MONITOR_PORT", &c.MonitorPort)
	r.bool("COSIM_OPEN_BROWSER", &c.OpenBrowser)
	r.uint("COSIM_HALF_PERIOD", &c.HalfPeriod)
	r.uint("COSIM_RESET_TIME", &c.ResetTime)
	r.uint("COSIM_TIME_LIMIT", &c.TimeLimit)

	return c, r.err
}

// envReader keeps the first parse error so that the fields can be read
// one after another.
type envReader struct {
	err error
}

func (r *envReader) lookup(name string) (string, bool) {
	v, found := os.LookupEnv(name)
	if !found || r.err != nil {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (r *envReader) fail(name string, err error) {
	r.err = errors.Wrapf(err, "invalid %s", name)
}

func (r *envReader) str(name string, dst *string) {
	if v, found := r.lookup(name); found {
		*dst = v
	}
}

func (r *envReader) uint(name string, dst *uint64) {
	v, found := r.lookup(name)
	if !found {
		return
	}

	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		r.fail(name, err)
		return
	}

	*dst = n
}

func (r *envReader) int(name string, dst *int) {
	v, found := r.lookup(name)
	if !found {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, err)
		return
	}

	*dst = n
}

func (r *envReader) bool(name string, dst *bool) {
	v, found := r.lookup(name)
	if !found {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(name, err)
		return
	}

	*dst = b
}

func (r *envReader) notBool(name string, dst *bool) {
	v := !*dst
	r.bool(name, &v)
	*dst = !v
}
