// Package output formats review results for the terminal or for machine
// consumption.
//
// Formats:
//   - text     plain terminal output (default)
//   - json     structured [Result]
//   - markdown a markdown document, suitable for pasting into a PR
//   - pretty   markdown rendered for the terminal with glamour
//
// Use [GetWriter] to obtain a [Writer] for a format, or [WriteResult] to
// write straight to a file or stdout.
package output
