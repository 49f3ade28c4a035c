// Package collab is the client side of a collaboration room.
//
// A [Channel] owns at most one websocket connection to the relay server and
// tracks the room ID, a count of remote participants and an explicit
// connection state machine:
//
//	disconnected -> connecting -> connected
//	                     |            |
//	                     v            v
//	                   error     disconnected
//
// Every observable change is delivered, in order, on [Channel.Events]. The
// receiver is expected to be a single event loop. Events produced by a
// connection that has since been replaced or torn down are discarded, so the
// loop never sees a late message from a previous room.
//
// There is no reconnect, no queue of unsent updates and no validation that
// a room exists: joining any well-formed ID connects to it.
package collab
