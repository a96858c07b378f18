// Command ots scores tennis matches on a device that may be offline.
package main

import (
	"fmt"
	"os"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
