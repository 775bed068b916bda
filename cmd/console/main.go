// Package main is the entry point for the statement import console.
package main

import (
	"os"

	"github.com/dvloznov/opsconsole/cmd/console/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
