// Command hrportal provisions and inspects the HR portal schema.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hrportal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
