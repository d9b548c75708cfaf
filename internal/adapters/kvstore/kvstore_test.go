package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agendadrte/core/internal/domain/entities"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "kv.db"), 1024*1024)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := entities.Task{ID: "t1", Title: "Revisar informe", Date: "2026-03-10"}
	if err := s.Put(ctx, "task:t1", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out entities.Task
	if err := s.Get(ctx, "task:t1", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ID != in.ID || out.Title != in.Title || out.Date != in.Date {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "settings", map[string]int{"v": 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "settings", map[string]int{"v": 2}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	var out map[string]int
	if err := s.Get(ctx, "settings", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out["v"] != 2 {
		t.Fatalf("got %d, want 2", out["v"])
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var out entities.Task
	err := s.Get(context.Background(), "task:absent", &out)
	if !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "task:t1", entities.Task{ID: "t1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(ctx, "task:t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "task:t1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	var out entities.Task
	if err := s.Get(ctx, "task:t1", &out); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("got %v after delete, want ErrNotFound", err)
	}
}

func TestListKeysWithPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"task:b", "task:a", "template:x", "settings"} {
		if err := s.Put(ctx, key, "v"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := s.ListKeysWithPrefix(ctx, "task:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "task:a" || keys[1] != "task:b" {
		t.Fatalf("got %v, want [task:a task:b]", keys)
	}
}

func TestPutRejectsOversizedRecord(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "kv.db"), 64)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	big := make([]byte, 256)
	err = s.Put(context.Background(), "task:t1", string(big))
	if !errors.Is(err, entities.ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := New(path, 1024*1024)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Put(ctx, "task:t1", entities.Task{ID: "t1", Title: "durable"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s2, err := New(path, 1024*1024)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	var out entities.Task
	if err := s2.Get(ctx, "task:t1", &out); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if out.Title != "durable" {
		t.Fatalf("got %q after reopen", out.Title)
	}
}
