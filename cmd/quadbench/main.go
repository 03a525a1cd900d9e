package main

import (
	"os"

	"github.com/alexshd/quadbench/cmd/quadbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
