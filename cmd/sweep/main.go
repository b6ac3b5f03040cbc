package main

import (
	"fmt"
	"os"

	"github.com/roach88/sweep/internal/cli"

	_ "github.com/roach88/sweep/examples/polynomial"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
