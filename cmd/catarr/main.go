// Package main is the entry point for the catarr application.
package main

import (
	"os"

	"github.com/jmylchreest/catarr/cmd/catarr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
