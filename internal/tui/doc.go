// Package tui is the terminal editor: a bubbletea program whose Update loop
// is the only place the workspace is mutated from user input or from
// collaboration events.
//
// Layout: code editor on the left, rendered review result (or the history
// panel) on the right, a status bar with room, connection state,
// participants, mode, language and loading state, and a key help line.
package tui
