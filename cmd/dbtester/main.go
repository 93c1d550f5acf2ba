package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/seijikohara/db-tester-sub006/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own failures; anything else (usage
		// errors, bad flags) surfaces here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
