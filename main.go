package main

import (
	"os"

	"cloud-init-strict/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
