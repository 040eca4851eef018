// Package main is the leapsim command-line entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/leapsim/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
