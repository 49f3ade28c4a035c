// Package workspace holds the live editing session of one client and keeps
// it consistent with the collaboration room.
//
// The [Relay] decides whether a change to the code buffer must be broadcast.
// Changes applied from the room are marked remote-origin just before they
// are applied; the change handler consumes the mark instead of broadcasting,
// so an inbound update is never echoed back. Every other change is local and
// is broadcast.
//
// The [Workspace] owns the session (code, language, mode), the current result
// text and an epoch. Restoring history, loading a snippet or resetting bumps
// the epoch; a review result carrying an older epoch is discarded.
package workspace
