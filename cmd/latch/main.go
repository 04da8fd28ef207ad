package main

import (
	"os"

	"github.com/zoobzio/latch/cmd/latch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
