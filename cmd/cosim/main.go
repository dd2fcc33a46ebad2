// Command cosim runs a hardware model against emulated synchronous memories.
package main

import (
	"os"

	"github.com/sarchlab/cosim/cmd/cosim/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
