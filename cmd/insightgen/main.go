// Package main provides the InsightGen command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/sumitkamra20/insightgen/cmd/insightgen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
