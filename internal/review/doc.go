// Package review contains the types and engine behind the POST /review
// endpoint.
//
// A [Request] names the code, its [Language], the requested [Mode] (review,
// fix, optimize or explain) and optionally a few prior exchanges for context.
// The [Engine] validates the request, redacts secrets, consults the response
// cache, assembles a mode-specific prompt and calls the configured provider.
//
// Rules packs (rules.go) let operators add focus areas and required checks to
// every prompt.
package review
