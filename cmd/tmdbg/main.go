// Command tmdbg is an interactive debugger for deterministic Turing machines.
package main

import (
	"os"

	"github.com/roach88/tmdbg/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
