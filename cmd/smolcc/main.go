package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harun/smolcc/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil && !errors.Is(err, cli.ErrInterrupted) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
