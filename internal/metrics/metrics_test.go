package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReview(t *testing.T) {
	m := New()
	m.ObserveReview("review", OutcomeOK)
	m.ObserveReview("review", OutcomeOK)
	m.ObserveReview("fix", OutcomeError)

	if got := testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("review", OutcomeOK)); got != 2 {
		t.Errorf("review/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("fix", OutcomeError)); got != 1 {
		t.Errorf("fix/error = %v, want 1", got)
	}
}

func TestObserveProvider(t *testing.T) {
	m := New()
	m.ObserveProvider("gemini", 1500*time.Millisecond, 120)
	m.ObserveProvider("gemini", time.Second, 0)

	if got := testutil.ToFloat64(m.ProviderTokensTotal.WithLabelValues("gemini")); got != 120 {
		t.Errorf("tokens = %v, want 120", got)
	}
	if n := testutil.CollectAndCount(m.ReviewDurationSeconds); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestCacheLookup(t *testing.T) {
	m := New()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	if got := testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")); got != 2 {
		t.Errorf("miss = %v, want 2", got)
	}
}

func TestRoomAndClientGauges(t *testing.T) {
	m := New()
	m.RoomOpened()
	m.RoomOpened()
	m.RoomClosed()
	m.ClientConnected()

	if got := testutil.ToFloat64(m.RoomsActive); got != 1 {
		t.Errorf("rooms = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ClientsConnected); got != 1 {
		t.Errorf("clients = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveReview("review", OutcomeOK)
	m.ObserveProvider("x", time.Second, 1)
	m.SecretsRedacted(2)
	m.CacheLookup(true)
	m.RoomOpened()
	m.RoomClosed()
	m.ClientConnected()
	m.ClientDisconnected()
	m.Relayed("join")
	m.Dropped("slow")
	m.RateLimited()
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.Relayed("code-update")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `coreview_collab_messages_relayed_total{type="code-update"} 1`) {
		t.Errorf("metrics output missing relayed counter:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("metrics output missing runtime collector")
	}
}
