package main

import (
	"os"

	"github.com/okian/turforacle/internal/simulate"
)

func main() {
	if err := simulate.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
