// Package storage provides the small key/value stores behind client state.
//
// Two scopes are used: session storage, which lives in a temporary directory
// named after the editing session and holds the review history, and durable
// storage under the user's config directory, which holds preferences such as
// the theme. Both are [Dir] stores; [Memory] backs tests.
package storage
