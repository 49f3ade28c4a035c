package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want miss", ok, err)
	}

	if err := s.Set("theme", []byte("light")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, ok, err := s.Get("theme")
	if err != nil || !ok {
		t.Fatalf("Get(theme) = ok %v, err %v", ok, err)
	}
	if string(got) != "light" {
		t.Errorf("Get(theme) = %q, want %q", got, "light")
	}

	if err := s.Set("theme", []byte("dark")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	got, _, _ = s.Get("theme")
	if string(got) != "dark" {
		t.Errorf("after overwrite Get(theme) = %q, want %q", got, "dark")
	}

	if err := s.Delete("theme"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get("theme"); ok {
		t.Error("key should be absent after Delete")
	}
	if err := s.Delete("theme"); err != nil {
		t.Errorf("Delete of absent key should not error: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestDir(t *testing.T) {
	d, err := NewDir(filepath.Join(t.TempDir(), "nested", "store"))
	if err != nil {
		t.Fatalf("NewDir error: %v", err)
	}
	exerciseStore(t, d)
}

func TestDir_KeysAreSafeFileNames(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir error: %v", err)
	}
	if err := d.Set("../escape/key", []byte("v")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	entries, err := os.ReadDir(d.Path())
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 || strings.Contains(entries[0].Name(), "/") {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	m.Set("k", buf)
	buf[0] = 'x'
	got, _, _ := m.Get("k")
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}
}

func TestSessionDir(t *testing.T) {
	if got := SessionDir("../../etc"); !strings.HasSuffix(got, filepath.Join("sessions", "etc")) {
		t.Errorf("SessionDir should sanitize names, got %q", got)
	}
	if got := SessionDir(""); !strings.HasSuffix(got, DefaultSession) {
		t.Errorf("SessionDir(\"\") = %q, want default session", got)
	}
}
