package history

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/storage"
	"github.com/google/go-cmp/cmp"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		return t
	}
}

func TestRecord_CapsAtMaxEntries(t *testing.T) {
	s := Open(storage.NewMemory())
	var ids []int64
	for i := 0; i < MaxEntries+1; i++ {
		e := s.NewEntry(review.ModeReview, review.LanguagePython, "code", "result")
		ids = append(ids, e.ID)
		if err := s.Record(e); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	got := s.List()
	if len(got) != MaxEntries {
		t.Fatalf("len(List()) = %d, want %d", len(got), MaxEntries)
	}
	for _, e := range got {
		if e.ID == ids[0] {
			t.Error("oldest entry should have been evicted")
		}
	}
	for i, e := range got {
		want := ids[len(ids)-1-i]
		if e.ID != want {
			t.Errorf("entry %d id = %d, want %d", i, e.ID, want)
		}
		if i > 0 && e.ID >= got[i-1].ID {
			t.Errorf("entries not strictly descending at %d", i)
		}
	}
}

func TestNewEntry_MonotonicUnderFrozenClock(t *testing.T) {
	s := Open(storage.NewMemory())
	s.now = fixedClock(time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC))

	a := s.NewEntry(review.ModeFix, review.LanguageJava, "a", "r")
	b := s.NewEntry(review.ModeFix, review.LanguageJava, "b", "r")
	if b.ID <= a.ID {
		t.Errorf("ids not monotonic: %d then %d", a.ID, b.ID)
	}
	if a.Time != "2:05:09 PM" {
		t.Errorf("Time = %q, want %q", a.Time, "2:05:09 PM")
	}
}

func TestPersistAndRestore(t *testing.T) {
	kv := storage.NewMemory()
	s := Open(kv)
	first := s.NewEntry(review.ModeReview, review.LanguageJavaScript, "let a", "fine")
	s.Record(first)
	second := s.NewEntry(review.ModeExplain, review.LanguageCPP, "int main(){}", "explained")
	s.Record(second)

	restored := Open(kv)
	if diff := cmp.Diff(s.List(), restored.List()); diff != "" {
		t.Errorf("restored history mismatch (-want +got):\n%s", diff)
	}

	// Ids issued after a restore keep increasing.
	next := restored.NewEntry(review.ModeReview, review.LanguagePython, "x", "y")
	if next.ID <= second.ID {
		t.Errorf("new id %d not greater than restored %d", next.ID, second.ID)
	}
}

func TestOpen_CorruptedData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"wrong shape", `{"id":1}`},
		{"wrong field types", `[{"id":"x"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			kv.Set(StorageKey, []byte(tt.data))
			s := Open(kv)
			if s.Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Len())
			}
		})
	}
}

func TestOpen_NormalizesOrderAndLength(t *testing.T) {
	var entries []Entry
	for i := 30; i > 0; i-- {
		entries = append(entries, Entry{ID: int64(i)})
	}
	// An out-of-order entry is dropped.
	entries = append(entries[:3], append([]Entry{{ID: 100}}, entries[3:]...)...)
	data, _ := json.Marshal(entries)

	kv := storage.NewMemory()
	kv.Set(StorageKey, data)
	got := Open(kv).List()
	if len(got) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(got), MaxEntries)
	}
	for _, e := range got {
		if e.ID == 100 {
			t.Error("out-of-order entry should be dropped")
		}
	}
}

func TestClear(t *testing.T) {
	kv := storage.NewMemory()
	s := Open(kv)
	s.Record(s.NewEntry(review.ModeReview, review.LanguagePython, "a", "b"))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
	if _, ok, _ := kv.Get(StorageKey); ok {
		t.Error("persisted history should be removed")
	}
}

func TestGet(t *testing.T) {
	s := Open(storage.NewMemory())
	e := s.NewEntry(review.ModeOptimize, review.LanguageJava, "c", "r")
	s.Record(e)
	got, ok := s.Get(e.ID)
	if !ok || got != e {
		t.Errorf("Get(%d) = %+v, %v", e.ID, got, ok)
	}
	if _, ok := s.Get(-1); ok {
		t.Error("Get of unknown id should miss")
	}
}

type failingStore struct{ *storage.Memory }

func (f *failingStore) Set(string, []byte) error { return errors.New("disk full") }

func TestRecord_PersistFailureKeepsMemory(t *testing.T) {
	s := Open(&failingStore{Memory: storage.NewMemory()})
	err := s.Record(s.NewEntry(review.ModeReview, review.LanguagePython, "a", "b"))
	if err == nil {
		t.Fatal("expected persist error")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
