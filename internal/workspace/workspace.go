package workspace

import (
	"sync"

	"github.com/dshills/coreview/internal/history"
	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/snippet"
)

// Session is the shared editing state.
type Session struct {
	Code     string
	Language review.Language
	Mode     review.Mode
}

// State is a consistent snapshot of the workspace.
type State struct {
	Session
	Result string
	// Epoch changes whenever the session is replaced wholesale.
	Epoch uint64
}

// Origin says what caused a change.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
	OriginRestore
	OriginResult
)

// Change is passed to observers after every mutation.
type Change struct {
	State  State
	Origin Origin
	// Broadcast is true when the change was sent to the room.
	Broadcast bool
}

// DefaultSession is the state of a fresh workspace.
func DefaultSession() Session {
	return Session{Language: review.LanguageJavaScript, Mode: review.ModeReview}
}

// Workspace is one client's editing session.
//
// State changes happen under mu; broadcasts happen afterwards under sendMu,
// so a slow room connection never blocks readers of the state. Every change
// takes a sequence number and a broadcast is skipped once a newer state has
// gone out, which keeps the room from seeing states out of order.
type Workspace struct {
	mu        sync.Mutex
	state     State
	seq       uint64
	relay     *Relay
	observers []func(Change)

	sendMu  sync.Mutex
	sentSeq uint64
}

// New creates a Workspace seeded with s.
func New(relay *Relay, s Session) *Workspace {
	if relay == nil {
		relay = NewRelay(nil)
	}
	if s.Language == "" {
		s.Language = review.LanguageJavaScript
	}
	if s.Mode == "" {
		s.Mode = review.ModeReview
	}
	return &Workspace{relay: relay, state: State{Session: s}}
}

// Relay returns the workspace's relay.
func (w *Workspace) Relay() *Relay { return w.relay }

// OnChange registers an observer. Observers run outside the workspace lock
// on the goroutine that made the change.
func (w *Workspace) OnChange(fn func(Change)) {
	w.mu.Lock()
	w.observers = append(w.observers, fn)
	w.mu.Unlock()
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Edit replaces the code buffer with a local edit. The broadcast runs on
// the caller's goroutine after the state lock is released and is bounded
// by the broadcaster's write timeout.
func (w *Workspace) Edit(code string) bool {
	w.mu.Lock()
	if code == w.state.Code {
		w.mu.Unlock()
		return false
	}
	w.state.Code = code
	seq, st := w.bumpLocked()
	w.mu.Unlock()

	sent := w.broadcast(seq, st, false)
	w.notify(Change{State: st, Origin: OriginLocal, Broadcast: sent})
	return true
}

// SetLanguage changes the language locally.
func (w *Workspace) SetLanguage(lang review.Language) bool {
	w.mu.Lock()
	if lang == w.state.Language {
		w.mu.Unlock()
		return false
	}
	w.state.Language = lang
	seq, st := w.bumpLocked()
	w.mu.Unlock()

	sent := w.broadcast(seq, st, false)
	w.notify(Change{State: st, Origin: OriginLocal, Broadcast: sent})
	return true
}

// SetMode changes the review mode. Modes are per client and never broadcast.
func (w *Workspace) SetMode(mode review.Mode) bool {
	w.mu.Lock()
	if mode == w.state.Mode {
		w.mu.Unlock()
		return false
	}
	w.state.Mode = mode
	ch := Change{State: w.state, Origin: OriginLocal}
	w.mu.Unlock()
	w.notify(ch)
	return true
}

// ApplyRemote applies a code-update received from the room. It reports
// false when the payload matches the current state or names an unsupported
// language; in both cases nothing changes and no mark is left pending.
func (w *Workspace) ApplyRemote(code, language string) bool {
	lang, err := review.ParseLanguage(language)
	if err != nil {
		return false
	}

	w.mu.Lock()
	if code == w.state.Code && lang == w.state.Language {
		w.mu.Unlock()
		return false
	}
	w.state.Code = code
	w.state.Language = lang
	seq, st := w.bumpLocked()
	w.mu.Unlock()

	w.broadcast(seq, st, true)
	w.notify(Change{State: st, Origin: OriginRemote})
	return true
}

// Restore replaces code, language, mode and result with a history entry in
// one step. The change is local and is broadcast.
func (w *Workspace) Restore(e history.Entry) {
	w.replace(Session{Code: e.Code, Language: e.Language, Mode: e.Mode}, e.Result)
}

// LoadSnippet replaces the session with a decoded snippet. An unsupported
// language keeps the current one.
func (w *Workspace) LoadSnippet(s snippet.Snippet) {
	w.mu.Lock()
	sess := w.state.Session
	w.mu.Unlock()

	sess.Code = s.Code
	if lang, err := review.ParseLanguage(s.Language); err == nil {
		sess.Language = lang
	}
	w.replace(sess, s.Result)
}

// Reset returns to an empty session.
func (w *Workspace) Reset() {
	w.replace(DefaultSession(), "")
}

func (w *Workspace) replace(s Session, result string) {
	w.mu.Lock()
	prev := w.state.Session
	w.state.Session = s
	w.state.Result = result
	w.state.Epoch++
	seq, st := w.bumpLocked()
	w.mu.Unlock()

	var sent bool
	if prev.Code != s.Code || prev.Language != s.Language {
		sent = w.broadcast(seq, st, false)
	}
	w.notify(Change{State: st, Origin: OriginRestore, Broadcast: sent})
}

func (w *Workspace) bumpLocked() (uint64, State) {
	w.seq++
	return w.seq, w.state
}

// broadcast hands st to the relay unless a newer state was already handed
// over. Remote states go through the relay with the remote mark set, so the
// relay consumes the mark and sends nothing.
func (w *Workspace) broadcast(seq uint64, st State, remote bool) bool {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if seq <= w.sentSeq {
		return false
	}
	w.sentSeq = seq
	if remote {
		w.relay.MarkRemote()
	}
	return w.relay.Changed(st.Code, string(st.Language))
}

// SetResult stores a review result produced for epoch. It reports false and
// changes nothing when the workspace has moved to another epoch.
func (w *Workspace) SetResult(epoch uint64, text string) bool {
	w.mu.Lock()
	if epoch != w.state.Epoch {
		w.mu.Unlock()
		return false
	}
	w.state.Result = text
	ch := Change{State: w.state, Origin: OriginResult}
	w.mu.Unlock()
	w.notify(ch)
	return true
}

// Snippet returns the shareable form of the current state.
func (w *Workspace) Snippet() snippet.Snippet {
	st := w.Snapshot()
	return snippet.Snippet{Code: st.Code, Language: string(st.Language), Result: st.Result}
}

func (w *Workspace) notify(ch Change) {
	w.mu.Lock()
	observers := append([]func(Change){}, w.observers...)
	w.mu.Unlock()
	for _, fn := range observers {
		fn(ch)
	}
}
