// Formulary is the command-line interface for the clinical reference lists.
//
// Usage:
//
//	formulary [--config-dir <path>] [--data-dir <path>] [--json] <command> [args]
package main

import "github.com/mesh-intelligence/formulary/internal/cli"

func main() {
	cli.Execute()
}
