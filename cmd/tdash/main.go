package main

import (
	"os"

	"github.com/timetracker/tdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
