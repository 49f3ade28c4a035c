// Package protocol defines the JSON messages exchanged inside a collaboration
// room and the room identifier format.
//
// Every message carries a "type" discriminator: join, leave or code-update.
// A code-update carries the full code buffer and its language, never a diff,
// so the latest message received is always sufficient to converge.
//
// Room identifiers are six characters drawn uniformly from A-Z and 0-9 using
// crypto/rand. [NormalizeRoomID] applies the trim-and-uppercase rule used
// when a user types an identifier by hand.
package protocol
