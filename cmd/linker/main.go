// Package main provides the entry point for the linker CLI tool.
package main

import (
	"os"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/cmd/linker/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		app.ExitOnError(err)
	}

	// Signal context so SIGINT stops the batch between submissions
	ctx, cancel := app.Context()
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
