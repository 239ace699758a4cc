package main

import (
	"os"

	"github.com/storelane-dev/storelane/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
