package main

import (
	"os"

	"github.com/dshills/piicleaner/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
