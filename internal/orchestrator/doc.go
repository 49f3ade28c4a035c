// Package orchestrator runs review requests for the editor.
//
// At most one request is in flight per [Orchestrator]. A submit while a
// request is loading, or with blank code, does nothing. A successful answer
// becomes the workspace result and is recorded in the session history; a
// failure shows a fixed message and records nothing. Answers that arrive
// after the workspace was restored, reset or reseeded from a snippet are
// dropped.
package orchestrator
