// main.go - admin client for a running pageflow server
package main

import (
	"os"

	"pageflow/internal/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
