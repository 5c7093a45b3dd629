package main

import (
	"os"

	"github.com/rustyeddy/fxlot/cmd/fxlot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
