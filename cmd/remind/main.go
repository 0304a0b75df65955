package main

import (
	"fmt"
	"os"

	"github.com/ytakahashi/task-reminder/internal/cli"
)

func main() {
	// No args opens the interactive list; anything else goes to cobra.
	if len(os.Args) == 1 {
		if err := cli.RunTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
