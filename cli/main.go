package main

import (
	"os"

	"github.com/oceandrift/database/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
