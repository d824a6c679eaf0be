// Command histview uploads browser history files to a history analysis
// server and browses, searches and exports the results.
package main

import (
	"os"

	"github.com/runnerr0/histview/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// go-flags has already printed the error.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
