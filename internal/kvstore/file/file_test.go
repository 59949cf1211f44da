package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/kvstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "moddiUsers"); !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := s.Set(ctx, "moddiUsers", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "moddiUsers")
	if err != nil || string(got) != `[{"id":1}]` {
		t.Fatalf("get: %q, %v", got, err)
	}

	if err := s.Remove(ctx, "moddiUsers"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, "moddiUsers"); !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after remove, got %v", err)
	}
	if err := s.Remove(ctx, "moddiUsers"); err != nil {
		t.Errorf("remove absent: %v", err)
	}
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, key := range []string{"", "../escape", "a/b", "a b"} {
		if err := s.Set(ctx, key, []byte("x")); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
		if _, err := s.Get(ctx, key); err == nil || errors.Is(err, kvstore.ErrKeyNotFound) {
			t.Errorf("key %q should be rejected on read", key)
		}
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Set(ctx, "moddiNews", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(ctx, "moddiNews")
	if err != nil || string(got) != "[]" {
		t.Fatalf("get after reopen: %q, %v", got, err)
	}

	// Keys map to one .json file each.
	if _, err := os.Stat(filepath.Join(dir, "moddiNews.json")); err != nil {
		t.Errorf("expected blob file on disk: %v", err)
	}
}
