package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/dshills/coreview/internal/history"
	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/workspace"
	"go.uber.org/zap"
)

// FailureFeedback replaces the result when a review cannot be obtained.
const FailureFeedback = "Error connecting to backend"

// Status is the request state.
type Status int

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Outcome describes a finished submit.
type Outcome struct {
	Feedback string
	// Err is the backend error when the review failed.
	Err error
	// Stale is true when the workspace moved on before the answer arrived.
	Stale bool
	// Entry is the recorded history entry on success.
	Entry *history.Entry
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistoryTurns sets how many recent history entries accompany a request.
func WithHistoryTurns(n int) Option { return func(o *Orchestrator) { o.historyTurns = n } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithStatusHook is called on every status transition.
func WithStatusHook(fn func(Status)) Option { return func(o *Orchestrator) { o.onStatus = fn } }

// Orchestrator coordinates review requests for one workspace.
type Orchestrator struct {
	backend      Backend
	ws           *workspace.Workspace
	hist         *history.Store
	historyTurns int
	logger       *zap.Logger
	onStatus     func(Status)

	mu     sync.Mutex
	status Status
}

// New creates an Orchestrator.
func New(backend Backend, ws *workspace.Workspace, hist *history.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:      backend,
		ws:           ws,
		hist:         hist,
		historyTurns: review.DefaultHistoryTurns,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Status returns the current status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// SubmitCurrent submits the workspace's current code, language and mode.
func (o *Orchestrator) SubmitCurrent(ctx context.Context) (Outcome, bool) {
	st := o.ws.Snapshot()
	return o.submit(ctx, st.Code, st.Language, st.Mode, st.Epoch)
}

// Submit requests a review. It returns false without contacting the backend
// when code is blank or a request is already loading. Otherwise it blocks
// until the backend answers.
func (o *Orchestrator) Submit(ctx context.Context, code string, lang review.Language, mode review.Mode) (Outcome, bool) {
	return o.submit(ctx, code, lang, mode, o.ws.Snapshot().Epoch)
}

func (o *Orchestrator) submit(ctx context.Context, code string, lang review.Language, mode review.Mode, epoch uint64) (Outcome, bool) {
	if strings.TrimSpace(code) == "" {
		return Outcome{}, false
	}
	if !o.transition(Idle, Loading) {
		return Outcome{}, false
	}
	defer o.transition(Loading, Idle)

	req := review.Request{
		Code:     code,
		Language: lang,
		Mode:     mode,
		History:  o.recentExchanges(),
	}
	resp, err := o.backend.Review(ctx, req)
	if err != nil {
		o.logger.Warn("review failed", zap.Error(err))
		out := Outcome{Feedback: FailureFeedback, Err: err}
		out.Stale = !o.ws.SetResult(epoch, FailureFeedback)
		return out, true
	}

	out := Outcome{Feedback: resp.Feedback}
	if !o.ws.SetResult(epoch, resp.Feedback) {
		o.logger.Debug("discarding stale review result")
		out.Stale = true
		return out, true
	}
	entry := o.hist.NewEntry(mode, lang, code, resp.Feedback)
	if err := o.hist.Record(entry); err != nil {
		o.logger.Warn("persisting history", zap.Error(err))
	}
	out.Entry = &entry
	return out, true
}

func (o *Orchestrator) transition(from, to Status) bool {
	o.mu.Lock()
	if o.status != from {
		o.mu.Unlock()
		return false
	}
	o.status = to
	hook := o.onStatus
	o.mu.Unlock()
	if hook != nil {
		hook(to)
	}
	return true
}

func (o *Orchestrator) recentExchanges() []review.Exchange {
	if o.historyTurns <= 0 || o.hist == nil {
		return nil
	}
	entries := o.hist.List()
	if len(entries) > o.historyTurns {
		entries = entries[:o.historyTurns]
	}
	out := make([]review.Exchange, 0, len(entries))
	for _, e := range entries {
		out = append(out, review.Exchange{Mode: e.Mode, Code: e.Code, Feedback: e.Result})
	}
	return out
}
