package main

import (
	"os"

	"github.com/marcosogg/budgetflow/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
