package main

import (
	"os"

	"github.com/bkooistra/factuurcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
