package main

import (
	"os"

	"github.com/tuongmengleang/firechat/cmd/firechat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
