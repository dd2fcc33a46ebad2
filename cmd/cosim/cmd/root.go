// Package cmd provides the command-line interface of cosim.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cosim/harness"
	"github.com/sarchlab/cosim/models"
)

// Execute runs the command with the process arguments and returns the exit
// status.
func Execute() int {
	return Run(os.Args[1:], os.Stderr)
}

// Run runs the command with args. Usage, errors and memory traces go to
// stderr. It returns the exit status.
func Run(args []string, stderr io.Writer) int {
	cfg, err := harness.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return harness.ExitCode(err)
	}

	rootCmd, helpRequested := newRootCmd(&cfg, stderr)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	if *helpRequested {
		return harness.ExitCode(harness.ErrHelp)
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)

		if errors.Cause(err) == harness.ErrUsage {
			fmt.Fprint(stderr, rootCmd.UsageString())
		}
	}

	return harness.ExitCode(err)
}

func newRootCmd(cfg *harness.Config, stderr io.Writer) (*cobra.Command, *bool) {
	helpRequested := false
	notrace := !cfg.Trace

	rootCmd := &cobra.Command{
		Use:   "cosim [options]",
		Short: "Runs a hardware model against emulated synchronous memories.",
		Long: "cosim drives the clock and reset of a hardware model and " +
			"backs its memory ports with host memory. A memory image can be " +
			"loaded before the run and dumped after it.\n\n" +
			"Models: " + strings.Join(models.Names(), ", "),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg.Trace = !notrace

			_, err := harness.Run(*cfg, stderr)

			return err
		},
	}

	rootCmd.SetOut(stderr)
	rootCmd.SetErr(stderr)
	rootCmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		helpRequested = true
		fmt.Fprint(stderr, c.UsageString())
	})
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(harness.ErrUsage, err.Error())
	})

	f := rootCmd.Flags()
	f.BoolP("help", "h", false, "this help")
	f.StringVarP(&cfg.Input, "input", "i", cfg.Input,
		"hex memory image to load before the run")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output,
		"file to dump the memory into after the run")
	f.Uint64VarP(&cfg.Cycles, "cycles", "c", cfg.Cycles,
		"number of cycles to run before stopping, 0 for no limit")
	f.StringVarP(&cfg.VCD, "vcd", "v", cfg.VCD, "output trace file")
	f.BoolVarP(&notrace, "notrace", "n", notrace,
		"do not output trace file")
	f.BoolVarP(&cfg.MemTrace, "memtrace", "m", cfg.MemTrace,
		"print every memory access")
	f.StringVar(&cfg.Model, "model", cfg.Model, "model to simulate")
	f.StringVar(&cfg.Region, "region", cfg.Region,
		"memory region used for the images, default is the first one")
	f.StringVar(&cfg.MemDB, "memdb", cfg.MemDB,
		"record memory accesses into this SQLite database")
	f.StringVar(&cfg.MemCSV, "memcsv", cfg.MemCSV,
		"write memory accesses into this CSV file (.csv is appended)")
	f.BoolVar(&cfg.Monitor, "monitor", cfg.Monitor,
		"serve the simulation state over HTTP")
	f.IntVar(&cfg.MonitorPort, "monitor-port", cfg.MonitorPort,
		"port of the monitor, 0 for any")
	f.BoolVar(&cfg.OpenBrowser, "open-browser", cfg.OpenBrowser,
		"open the monitor in a browser")
	f.Uint64Var(&cfg.HalfPeriod, "half-period", cfg.HalfPeriod,
		"time units per clock toggle")
	f.Uint64Var(&cfg.ResetTime, "reset-time", cfg.ResetTime,
		"time until which reset is asserted")
	f.Uint64Var(&cfg.TimeLimit, "time-limit", cfg.TimeLimit,
		"time after which the run stops")

	return rootCmd, &helpRequested
}
