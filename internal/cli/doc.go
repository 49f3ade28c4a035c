// Package cli wires together the Cobra command tree for the coreview binary.
//
// It defines the root command and all subcommands (serve, edit, room,
// review, share, history, config, cache, models, version), binds flags,
// loads configuration, builds the zap logger, and returns deterministic
// exit codes.
package cli
