package main

import (
	"os"

	"github.com/imishinist/perfreport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
