package main

import (
	"os"

	"github.com/axisframe/axis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
