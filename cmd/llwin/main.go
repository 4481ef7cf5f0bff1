// Package main is the entry point for the llwin CLI.
//
// llwin deploys Windows virtual machines running the LucidLink client on
// AWS or Azure, waits for them to become ready, verifies the filespace
// mount and writes NICE DCV connection files for each instance.
//
// Commands: deploy, status, verify, stop, start, destroy.
//
// For detailed usage information, run:
//
//	llwin --help
package main

import (
	"fmt"
	"os"

	"github.com/dmcp718/ll-win-client/cmd/llwin/commands"
)

// Version information set by goreleaser at build time.
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
