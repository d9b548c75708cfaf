package blobstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "objects.db"), 1024)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("second open: %v", err)
	}
}

func TestPutGetFileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte("contenido del oficio")
	att := &entities.Attachment{
		TaskID:    "t1",
		Name:      "oficio.pdf",
		MimeType:  "application/pdf",
		SizeBytes: int64(len(payload)),
		Payload:   payload,
	}
	id, err := s.PutFile(ctx, att)
	if err != nil {
		t.Fatalf("put file: %v", err)
	}
	if id == "" {
		t.Fatal("empty id assigned")
	}

	got, err := s.GetFile(ctx, id)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if got.Name != "oficio.pdf" || got.TaskID != "t1" {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatal("payload mismatch")
	}
	if got.LastAccessedAt == nil {
		t.Fatal("access timestamp not recorded")
	}
}

func TestPutFileAssignsUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		att := &entities.Attachment{TaskID: "t1", Name: "same.txt", SizeBytes: 1, Payload: []byte("x")}
		id, err := s.PutFile(ctx, att)
		if err != nil {
			t.Fatalf("put file %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("id %s assigned twice", id)
		}
		seen[id] = true
	}
}

func TestPutFileEnforcesSizeLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exact := &entities.Attachment{TaskID: "t1", Name: "exact.bin", SizeBytes: 1024, Payload: make([]byte, 1024)}
	if _, err := s.PutFile(ctx, exact); err != nil {
		t.Fatalf("file at the limit rejected: %v", err)
	}

	over := &entities.Attachment{TaskID: "t1", Name: "over.bin", SizeBytes: 1025, Payload: make([]byte, 1025)}
	_, err := s.PutFile(ctx, over)
	if !errors.Is(err, entities.ErrSizeLimitExceeded) {
		t.Fatalf("got %v, want ErrSizeLimitExceeded", err)
	}
}

func TestGetFileMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFile(context.Background(), "absent")
	if !errors.Is(err, entities.ErrAttachmentNotFound) {
		t.Fatalf("got %v, want ErrAttachmentNotFound", err)
	}
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	att := &entities.Attachment{TaskID: "t1", Name: "a.txt", SizeBytes: 1, Payload: []byte("x")}
	id, err := s.PutFile(ctx, att)
	if err != nil {
		t.Fatalf("put file: %v", err)
	}
	if err := s.DeleteFile(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteFile(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.GetFile(ctx, id); !errors.Is(err, entities.ErrAttachmentNotFound) {
		t.Fatalf("got %v after delete, want ErrAttachmentNotFound", err)
	}
}

func TestListFilesByTaskExcludesPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"primero.txt", "segundo.txt"} {
		att := &entities.Attachment{TaskID: "t1", Name: name, SizeBytes: 4, Payload: []byte("data"), UploadedAt: time.Now().UTC()}
		if _, err := s.PutFile(ctx, att); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	other := &entities.Attachment{TaskID: "t2", Name: "otro.txt", SizeBytes: 1, Payload: []byte("x")}
	if _, err := s.PutFile(ctx, other); err != nil {
		t.Fatalf("put other: %v", err)
	}

	files, err := s.ListFilesByTask(ctx, "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Name != "primero.txt" || files[1].Name != "segundo.txt" {
		t.Fatalf("wrong order: %s, %s", files[0].Name, files[1].Name)
	}
	for _, f := range files {
		if f.Payload != nil {
			t.Fatalf("payload leaked into listing for %s", f.Name)
		}
	}
}

func TestBackupLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snap := &entities.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Reason:    "scheduled",
			Tasks:     []*entities.Task{{ID: "t1", Title: "tarea"}},
			Settings:  entities.DefaultSettings(),
		}
		if err := s.PutBackup(ctx, snap); err != nil {
			t.Fatalf("put backup %d: %v", i, err)
		}
	}

	snaps, err := s.ListBackups(ctx)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if !snaps[i-1].Timestamp.Before(snaps[i].Timestamp) {
			t.Fatal("snapshots not ordered oldest-first")
		}
	}

	got, err := s.GetBackup(ctx, base)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "t1" {
		t.Fatalf("snapshot content mismatch: %+v", got)
	}

	if err := s.DeleteBackup(ctx, base); err != nil {
		t.Fatalf("delete backup: %v", err)
	}
	if _, err := s.GetBackup(ctx, base); !errors.Is(err, entities.ErrSnapshotNotFound) {
		t.Fatalf("got %v after delete, want ErrSnapshotNotFound", err)
	}
	if err := s.DeleteBackup(ctx, base); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestBackupOrderAcrossSecondBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A snapshot on an exact-second boundary must still sort after one
	// taken half a second earlier.
	boundary := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	earlier := boundary.Add(-500 * time.Millisecond)
	for _, ts := range []time.Time{boundary, earlier} {
		snap := &entities.Snapshot{
			Timestamp: ts,
			Reason:    "scheduled",
			Settings:  entities.DefaultSettings(),
		}
		if err := s.PutBackup(ctx, snap); err != nil {
			t.Fatalf("put backup %s: %v", ts, err)
		}
	}

	snaps, err := s.ListBackups(ctx)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if !snaps[0].Timestamp.Equal(earlier) || !snaps[1].Timestamp.Equal(boundary) {
		t.Fatalf("snapshots out of order: %s before %s",
			snaps[0].Timestamp, snaps[1].Timestamp)
	}

	if _, err := s.GetBackup(ctx, boundary); err != nil {
		t.Fatalf("get boundary backup: %v", err)
	}
	if _, err := s.GetBackup(ctx, earlier); err != nil {
		t.Fatalf("get fractional backup: %v", err)
	}
}

func TestSchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.db")
	ctx := context.Background()

	s := New(path, 1024)
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	att := &entities.Attachment{TaskID: "t1", Name: "keep.txt", SizeBytes: 4, Payload: []byte("data")}
	id, err := s.PutFile(ctx, att)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s2 := New(path, 1024)
	if err := s2.Open(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetFile(ctx, id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !bytes.Equal(got.Payload, []byte("data")) {
		t.Fatal("payload lost across reopen")
	}
}

func TestOperationsRequireOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "objects.db"), 1024)
	_, err := s.GetFile(context.Background(), "x")
	if !errors.Is(err, entities.ErrStorageUnavailable) {
		t.Fatalf("got %v, want ErrStorageUnavailable", err)
	}
}
