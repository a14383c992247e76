// Package main is the entry point for the nitrogenctl CLI.
package main

import (
	"os"

	"github.com/baylab/nitrogen-dashboard/cmd/nitrogenctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
