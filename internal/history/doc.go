// Package history keeps the bounded log of completed reviews for one editing
// session.
//
// Entries are ordered most recent first and capped at [MaxEntries]; recording
// a new entry evicts the oldest. The log is written to session storage under
// [StorageKey] after every mutation and restored when the store is opened.
// Unreadable persisted data restores as an empty log.
package history
