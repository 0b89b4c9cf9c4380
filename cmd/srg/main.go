package main

import (
	"os"

	"github.com/youruser/srginventory/cmd/srg/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
