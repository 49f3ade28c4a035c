// Package hub is the server side of the collaboration transport.
//
// A [Hub] keeps a registry of rooms keyed by room ID. Rooms exist implicitly:
// the first websocket connection for an ID creates the room and the last
// disconnect removes it. Every valid message a client sends is relayed
// verbatim to the other clients in its room, in the order it was read.
// Malformed messages are dropped. A client that goes away without sending
// leave has one synthesized for it, so peer counters stay accurate.
package hub
