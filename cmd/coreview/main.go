package main

import (
	"os"

	"github.com/dshills/coreview/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
