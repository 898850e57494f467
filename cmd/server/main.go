package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("pencraft exited with error", "error", err)
		os.Exit(1)
	}
}
