package main

import (
	"os"

	"forumd/internal/cli"
)

func main() { os.Exit(cli.Main()) }
