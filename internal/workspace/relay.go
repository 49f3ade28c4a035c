package workspace

import "sync"

// Broadcaster sends the full buffer state to the room. It reports whether
// the update was sent.
type Broadcaster interface {
	SendUpdate(code, language string) bool
}

// Relay suppresses the echo of remotely-originated edits.
type Relay struct {
	mu     sync.Mutex
	remote bool
	out    Broadcaster
}

// NewRelay creates a Relay. out may be nil until a room is joined.
func NewRelay(out Broadcaster) *Relay {
	return &Relay{out: out}
}

// SetBroadcaster replaces the outbound sink.
func (r *Relay) SetBroadcaster(out Broadcaster) {
	r.mu.Lock()
	r.out = out
	r.mu.Unlock()
}

// MarkRemote flags the next change as remote-origin.
func (r *Relay) MarkRemote() {
	r.mu.Lock()
	r.remote = true
	r.mu.Unlock()
}

// Pending reports whether a remote mark is waiting to be consumed.
func (r *Relay) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remote
}

// Changed is the change handler for the code buffer and language. A pending
// remote mark is consumed and nothing is sent; otherwise the state is
// broadcast. It reports whether an update was sent.
func (r *Relay) Changed(code, language string) bool {
	r.mu.Lock()
	if r.remote {
		r.remote = false
		r.mu.Unlock()
		return false
	}
	out := r.out
	r.mu.Unlock()

	if out == nil {
		return false
	}
	return out.SendUpdate(code, language)
}
