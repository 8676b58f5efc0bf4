package main

import (
	"log/slog"
	"os"

	"github.com/mmynk/splitbill/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("splitbill failed", "error", err)
		os.Exit(1)
	}
}
