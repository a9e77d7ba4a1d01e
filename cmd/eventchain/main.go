// Command eventchain stores a filtered transaction stream in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/eventchain/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "eventchain:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
