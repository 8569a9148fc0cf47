//go:build !windows || dev

package main

import (
	"os"

	"github.com/bartek5186/autoparts-catalog/internal/cli"
)

// wersję możesz nadpisać przez: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

func main() {
	os.Exit(cli.Execute(ver))
}
