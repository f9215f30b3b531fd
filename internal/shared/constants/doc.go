// Package constants centralizes configuration defaults shared across the CLI.
//
// File permissions, response capture limits, report naming and the process
// exit codes live here so cmd/ and internal/ reference the same values
// without introducing import cycles.
package constants
