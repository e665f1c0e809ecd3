// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for winacl.
//
// Usage:
//
//	go run . [flags]
//	./winacl [flags]
//
// This launches the winacl CLI. See --help for options.
package main

import (
	"log"
	"os"

	"github.com/kburgoyne/winacl/ui/cli"
)

// main is the entrypoint for the winacl CLI.
func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("winacl error: %v", err)
		os.Exit(1)
	}
}
