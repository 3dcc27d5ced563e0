package main

import (
	"os"

	"github.com/NASWA-OpenUI/Playground/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
