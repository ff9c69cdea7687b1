// Command datacore sends requests through the datacore execution pipeline
// using configuration from YAML, .env files and the environment.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
