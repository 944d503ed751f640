package main

import (
	"os"

	"github.com/openaid/respond/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
