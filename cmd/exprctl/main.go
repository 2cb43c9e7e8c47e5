package main

import (
	"os"

	"github.com/ilramdhan/scene-expr/cmd/exprctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
