package main

import (
	"os"

	"github.com/waymark-project/waymark/internal/cli"
	"github.com/waymark-project/waymark/internal/logging"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Error("command failed", "error", err)
		os.Exit(1)
	}
}
