// Package cache stores LLM review feedback in an embedded Badger database.
//
// Entries are keyed by a SHA-256 hash of the provider name, model and the
// fully assembled (already redacted) prompt, so identical requests in any room
// are answered without another provider call. Each entry carries a TTL that
// Badger enforces on read. The default directory is $XDG_CACHE_HOME/coreview
// (or the OS-appropriate equivalent); the special directory ":memory:" keeps
// the cache in memory.
package cache
