package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/gyaneshwarpardhi/casegraph/internal/cli"
	"github.com/gyaneshwarpardhi/casegraph/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.Bad.Fprintf(os.Stderr, "beaglectl: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
