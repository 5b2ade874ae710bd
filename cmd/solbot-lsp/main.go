package main

import (
	"os"

	"github.com/ggoodman/solbot-lsp/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
