// Package main is the entry point for the firefly CLI.
// It browses the FIREfly flight catalog hosted on an HSDS server.
package main

import (
	"firefly/cli/cmd"
)

// main is the entry point for the firefly CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
