package main

import (
	"os"

	"github.com/dshills/diffsense/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
