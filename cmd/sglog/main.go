// Package main provides the entry point for the sglog CLI.
package main

import (
	"os"

	"github.com/hasegama/simple-global-logging/cmd/sglog/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
