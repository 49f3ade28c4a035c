package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/coreview/internal/history"
	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/storage"
	"github.com/dshills/coreview/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
	resp    review.Response
	err     error
	last    review.Request
	mu      sync.Mutex
}

func (f *fakeBackend) Review(ctx context.Context, req review.Request) (review.Response, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func setup(t *testing.T, b Backend, opts ...Option) (*Orchestrator, *workspace.Workspace, *history.Store) {
	t.Helper()
	ws := workspace.New(nil, workspace.DefaultSession())
	hist := history.Open(storage.NewMemory())
	return New(b, ws, hist, opts...), ws, hist
}

func TestSubmitSuccess(t *testing.T) {
	b := &fakeBackend{resp: review.Response{Feedback: "Looks fine."}}
	o, ws, hist := setup(t, b)
	ws.Edit("let x = 1;")

	out, ok := o.SubmitCurrent(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Looks fine.", out.Feedback)
	assert.False(t, out.Stale)
	require.NotNil(t, out.Entry)

	assert.Equal(t, "Looks fine.", ws.Snapshot().Result)
	entries := hist.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "let x = 1;", entries[0].Code)
	assert.Equal(t, review.ModeReview, entries[0].Mode)
	assert.Equal(t, review.LanguageJavaScript, entries[0].Language)
	assert.Equal(t, Idle, o.Status())
}

func TestSubmitEmptyCodeIsNoop(t *testing.T) {
	b := &fakeBackend{}
	o, _, _ := setup(t, b)

	for _, code := range []string{"", "  \n\t"} {
		_, ok := o.Submit(context.Background(), code, review.LanguagePython, review.ModeFix)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestSubmitFailure(t *testing.T) {
	b := &fakeBackend{err: errors.New("connection refused")}
	o, ws, hist := setup(t, b)

	out, ok := o.Submit(context.Background(), "x", review.LanguageJava, review.ModeExplain)
	require.True(t, ok)
	assert.Equal(t, FailureFeedback, out.Feedback)
	assert.Error(t, out.Err)
	assert.Equal(t, FailureFeedback, ws.Snapshot().Result)
	assert.Equal(t, 0, hist.Len())
}

func TestConcurrentSubmitsCallOnce(t *testing.T) {
	b := &fakeBackend{
		resp:    review.Response{Feedback: "ok"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	var statuses []Status
	var mu sync.Mutex
	o, _, _ := setup(t, b, WithStatusHook(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	}))

	done := make(chan bool)
	go func() {
		_, ok := o.Submit(context.Background(), "a", review.LanguageCPP, review.ModeReview)
		done <- ok
	}()
	<-b.started
	assert.Equal(t, Loading, o.Status())

	for i := 0; i < 5; i++ {
		_, ok := o.Submit(context.Background(), "b", review.LanguageCPP, review.ModeReview)
		assert.False(t, ok, "submit while loading must be ignored")
	}

	close(b.release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, Idle, o.Status())

	mu.Lock()
	assert.Equal(t, []Status{Loading, Idle}, statuses)
	mu.Unlock()
}

func TestStaleResponseIgnored(t *testing.T) {
	b := &fakeBackend{
		resp:    review.Response{Feedback: "late answer"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	o, ws, hist := setup(t, b)
	ws.Edit("old code")

	done := make(chan Outcome)
	go func() {
		out, _ := o.SubmitCurrent(context.Background())
		done <- out
	}()
	<-b.started

	ws.Restore(history.Entry{ID: 1, Mode: review.ModeFix, Language: review.LanguagePython, Code: "restored", Result: "old result"})
	close(b.release)

	out := <-done
	assert.True(t, out.Stale)
	assert.Nil(t, out.Entry)
	assert.Equal(t, "old result", ws.Snapshot().Result)
	assert.Equal(t, 0, hist.Len())
}

func TestHistorySentWithRequest(t *testing.T) {
	b := &fakeBackend{resp: review.Response{Feedback: "fb"}}
	o, _, hist := setup(t, b, WithHistoryTurns(2))
	for _, code := range []string{"one", "two", "three"} {
		hist.Record(hist.NewEntry(review.ModeReview, review.LanguageJava, code, "r-"+code))
	}

	o.Submit(context.Background(), "four", review.LanguageJava, review.ModeReview)

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.last.History, 2)
	assert.Equal(t, "three", b.last.History[0].Code)
	assert.Equal(t, "r-three", b.last.History[0].Feedback)
	assert.Equal(t, "two", b.last.History[1].Code)
}

func TestHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req review.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, review.LanguagePython, req.Language)
		json.NewEncoder(w).Encode(review.Response{Feedback: "Use f-strings."})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL+"/", srv.Client())
	resp, err := b.Review(context.Background(), review.Request{Code: "x", Language: review.LanguagePython, Mode: review.ModeReview})
	require.NoError(t, err)
	assert.Equal(t, "Use f-strings.", resp.Feedback)
}

func TestHTTPBackendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(review.Response{Feedback: review.ProviderErrorFeedback})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, nil)
	_, err := b.Review(context.Background(), review.Request{Code: "x"})
	assert.ErrorContains(t, err, "502")
}

func TestHTTPBackendUnreachable(t *testing.T) {
	b := NewHTTPBackend("http://127.0.0.1:1", &http.Client{Timeout: time.Second})
	o, ws, _ := setup(t, b)
	out, ok := o.Submit(context.Background(), "x", review.LanguageJava, review.ModeReview)
	require.True(t, ok)
	assert.Equal(t, FailureFeedback, out.Feedback)
	assert.Equal(t, FailureFeedback, ws.Snapshot().Result)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
}
