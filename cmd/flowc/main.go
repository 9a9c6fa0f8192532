// Command flowc is the CLI front end over pkg/flowc's compile/run façade.
package main

import (
	"os"

	"github.com/flowc-lang/flowc/cmd/flowc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
