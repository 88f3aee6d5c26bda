// Command timeweave composes timelines from YAML or CUE definitions and runs
// them, printing or recording the events they emit.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/timeweave/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
