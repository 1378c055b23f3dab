package kv

import (
	"path/filepath"
	"testing"
)

func TestSQLite_SetGetAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}
	if err := s.Set("cache/orders", `[{"id":1}]`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Set("cache/orders", `[{"id":2}]`); err != nil {
		t.Fatalf("Set (overwrite) returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite (reopen) returned error: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, ok, err := reopened.Get("cache/orders")
	if err != nil || !ok {
		t.Fatalf("Get after reopen = ok=%v err=%v", ok, err)
	}
	if got != `[{"id":2}]` {
		t.Fatalf("Get after reopen = %q, want latest value", got)
	}
}

func TestOpenSQLite_EmptyPathErrors(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("OpenSQLite(\"\") returned nil error")
	}
}

func TestMemory_ZeroValueUsable(t *testing.T) {
	var m Memory
	if _, ok, _ := m.Get("k"); ok {
		t.Fatalf("zero Memory should be empty")
	}
	_ = m.Set("k", "v")
	if v, ok, _ := m.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %q,%v want v,true", v, ok)
	}
}
