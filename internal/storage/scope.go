package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSession is the session name used when none is given.
const DefaultSession = "default"

// SessionDir returns the temporary directory for the named editing session.
// The name is reduced to a safe path element.
func SessionDir(name string) string {
	name = sanitize(name)
	if name == "" {
		name = DefaultSession
	}
	return filepath.Join(os.TempDir(), "coreview", "sessions", name)
}

// OpenSession opens session-scoped storage for the named session.
func OpenSession(name string) (*Dir, error) {
	return NewDir(SessionDir(name))
}

// OpenDurable opens durable storage under configDir.
func OpenDurable(configDir string) (*Dir, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is required")
	}
	return NewDir(filepath.Join(configDir, "state"))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, name)
}
