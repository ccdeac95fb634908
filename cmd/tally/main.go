package main

import (
	"os"

	"github.com/dshills/tally/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
