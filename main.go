package main

import (
	"os"

	"github.com/rescuegrid/firedispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
