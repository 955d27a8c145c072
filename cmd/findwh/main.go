// Package main provides the findwh CLI application.
// findwh manages the lifecycle of the finance data warehouse.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
