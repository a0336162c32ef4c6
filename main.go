package main

import (
	"fmt"
	"os"

	"skribbl/internal/apperr"
	"skribbl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// A declined prompt has already been reported.
		if apperr.CodeOf(err) != apperr.CodeCancelled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
