package main

import (
	"os"

	"github.com/kuntal14/videoContextGeneration/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
