// Package main provides the entry point for the benchup CLI.
package main

import (
	"errors"
	"os"
)

func main() {
	err := Execute()
	var exitErr *exitError
	if err != nil && !errors.As(err, &exitErr) {
		printError(err)
	}
	os.Exit(exitCode(err))
}
