package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/coreview/internal/review"
	"github.com/dshills/coreview/internal/storage"
)

const (
	// MaxEntries bounds the history length.
	MaxEntries = 20
	// StorageKey is the session storage key holding the serialized log.
	StorageKey = "codeReviewHistory"

	timeLayout = "3:04:05 PM"
)

// Entry is one completed review with its full context.
type Entry struct {
	ID       int64           `json:"id"`
	Mode     review.Mode     `json:"mode"`
	Language review.Language `json:"language"`
	Code     string          `json:"code"`
	Result   string          `json:"result"`
	Time     string          `json:"time"`
}

// Store is the session history.
type Store struct {
	mu      sync.Mutex
	kv      storage.Store
	entries []Entry
	lastID  int64
	now     func() time.Time
}

// Open restores the history from kv. Corrupted data yields an empty log.
func Open(kv storage.Store) *Store {
	s := &Store{kv: kv, now: time.Now}
	data, ok, err := kv.Get(StorageKey)
	if err != nil || !ok {
		return s
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return s
	}
	s.entries = normalize(entries)
	if len(s.entries) > 0 {
		s.lastID = s.entries[0].ID
	}
	return s
}

// normalize drops entries that break the descending-id invariant and caps
// the length, so a hand-edited file cannot violate it.
func normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, min(len(entries), MaxEntries))
	for _, e := range entries {
		if len(out) == MaxEntries {
			break
		}
		if len(out) > 0 && e.ID >= out[len(out)-1].ID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// NewEntry builds an entry stamped with a creation id strictly greater than
// any id this store has issued or restored.
func (s *Store) NewEntry(mode review.Mode, language review.Language, code, result string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return Entry{
		ID:       id,
		Mode:     mode,
		Language: language,
		Code:     code,
		Result:   result,
		Time:     now.Format(timeLayout),
	}
}

// Record prepends e, truncates to MaxEntries and persists. The in-memory log
// is updated even when persisting fails.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID > s.lastID {
		s.lastID = e.ID
	}
	entries := make([]Entry, 0, MaxEntries)
	entries = append(entries, e)
	for _, old := range s.entries {
		if len(entries) == MaxEntries {
			break
		}
		entries = append(entries, old)
	}
	s.entries = entries
	return s.persist()
}

// Clear empties the log and removes it from storage.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// List returns a copy of the log, most recent first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get looks up an entry by id.
func (s *Store) Get(id int64) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) persist() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := s.kv.Set(StorageKey, data); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}
