// Command stepper serves a multi-step form wizard in the browser or runs it
// in the terminal.
//
// Commands: serve, prompt, validate, version.
//
//	stepper serve --addr :8080 --definition survey.yaml --watch
//	stepper prompt
package main

import (
	"fmt"
	"os"

	"github.com/gabrielmiguelok/golivestepper/cmd/stepper/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
