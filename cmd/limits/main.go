package main

import (
	"os"

	"github.com/wonny/storagelimits/cmd/limits/commands"
)

// main is the entry point for the limits CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/limits [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
