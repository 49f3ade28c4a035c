// Package server exposes the review engine and the collaboration hub over
// HTTP using gin.
//
// Routes:
//
//	POST /review       review a code buffer, returns {"feedback": ...}
//	GET  /ws/:room     websocket for a collaboration room
//	GET  /rooms        open rooms
//	GET  /rooms/:room  clients connected to one room
//	GET  /health       liveness
//	GET  /metrics      Prometheus metrics
package server
