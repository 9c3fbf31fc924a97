// Package main is the entry point for the esim-pricing CLI.
package main

import (
	"os"

	"esim-pricing/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
