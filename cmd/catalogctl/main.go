// Command catalogctl manages the discounted-sales catalog in Weaviate and
// issues API access tokens.
package main

import (
	"os"

	"agent-platform/internal/config"
)

func main() {
	config.LoadDotEnv()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
