// Command server runs the coursehub REST API.
//
// Usage:
//
//	coursehub serve [--config config.yaml]
//	coursehub migrate [--config config.yaml]
//
// Configuration is loaded from a YAML file, COURSEHUB_* environment
// variables and legacy variables (PORT, DATABASE_URL,
// ENABLE_GLOBAL_ERROR_LOGGING). See pkg/config for the full list.
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
