// Package main is the entry point for the jarvis CLI.
//
// Usage:
//
//	jarvis [flags] <command> [subcommand] [args]
//
// Commands:
//
//	serve      - Run the brain service (HTTP + websocket)
//	voice      - Run the voice front-end
//	ask        - Send one command and print the answer
//	rings      - List specialist agents
//	knowledge  - Manage the local knowledge index (add, search)
//	config     - Configuration management (init, show, path)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/flynn-ai/jarvis/cmd/jarvis/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
