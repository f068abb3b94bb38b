// =============================================================================
// catatkeu - Main Entry Point
// =============================================================================
//
// This is the main entry point for the catatkeu CLI application. It
// initializes the Cobra CLI framework and delegates command execution to the
// cmd package.
//
// USAGE:
//   catatkeu import   - Import workbook and text exports
//   catatkeu summary  - Display dashboard totals
//   catatkeu version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Normalizers, parsers, importer and storage
//   - pkg/       : Shared file utilities (inbox, archive, run logs)
//
// =============================================================================

package main

import (
	"github.com/catatkeu/catatkeu/cmd"
)

func main() {
	cmd.Execute()
}
