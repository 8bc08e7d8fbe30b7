// The main package for the tract-agent executable.
package main

import (
	"github.com/fooddesert/tract-agent/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
