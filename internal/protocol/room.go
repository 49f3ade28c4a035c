package protocol

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRoomID is returned for identifiers that are not six A-Z0-9 characters.
var ErrInvalidRoomID = errors.New("invalid room id")

const (
	roomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewRoomID returns a fresh 6-character uppercase alphanumeric identifier.
func NewRoomID() (string, error) {
	// Largest multiple of len(alphabet) that fits in a byte; bytes at or
	// above it are rejected to keep the distribution uniform.
	limit := byte(256 - 256%len(roomIDAlphabet))

	id := make([]byte, 0, roomIDLength)
	buf := make([]byte, roomIDLength*2)
	for len(id) < roomIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			id = append(id, roomIDAlphabet[int(b)%len(roomIDAlphabet)])
			if len(id) == roomIDLength {
				break
			}
		}
	}
	return string(id), nil
}

// NormalizeRoomID trims surrounding whitespace and uppercases the identifier.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidRoomID reports whether id is exactly six characters of A-Z or 0-9.
func ValidRoomID(id string) bool {
	if len(id) != roomIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(roomIDAlphabet, rune(id[i])) {
			return false
		}
	}
	return true
}
