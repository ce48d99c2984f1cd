package main

import (
	"os"

	"github.com/mattn/go-isatty"
)

// isTerminal returns true if f is an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
