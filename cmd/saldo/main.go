package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/cleared-dev/saldo/internal/commands"
)

func main() {
	// A .env next to the ledger may set LOG_LEVEL; its absence is normal.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
