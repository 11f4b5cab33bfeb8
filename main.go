// =============================================================================
// Load Export - Main Entry Point
// =============================================================================
//
// This is the main entry point for the loadexport CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   loadexport export iif|qbo|all   - Build accounting import documents
//   loadexport preview              - Show per-project totals without a document
//   loadexport serve                - Serve the export operations over HTTP
//   loadexport initdb               - Create (and optionally seed) the Postgres cache
//   loadexport version              - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline stages, sources, writers, delivery, HTTP API
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/loadexport/cmd"
)

func main() {
	cmd.Execute()
}
