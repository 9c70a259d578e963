package main

import (
	"github.com/joho/godotenv"

	"kbase/internal/cli"
)

func main() {
	// Provider API keys may live in a local .env file; a missing file is
	// fine, the environment still applies.
	_ = godotenv.Load()

	cli.Execute()
}
