package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/habitrack/internal/database"
	"github.com/dukerupert/habitrack/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupStore(db)
}

func TestBackupCreate(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b, err := bs.Create(ctx, "habitrack/backup-2026-02-05T100000Z.json.enc", 12)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.ObjectKey != "habitrack/backup-2026-02-05T100000Z.json.enc" {
		t.Errorf("object_key = %q", b.ObjectKey)
	}
	if b.DayCount != 12 {
		t.Errorf("day_count = %d, want 12", b.DayCount)
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}
	if b.StartedAt == nil {
		t.Error("expected started_at to be set")
	}
}

func TestBackupGetByIDNotFound(t *testing.T) {
	bs := setupBackupTestDB(t)

	got, err := bs.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent backup")
	}
}

func TestBackupUpdateStatus(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b, _ := bs.Create(ctx, "a.json.enc", 1)

	if err := bs.UpdateStatus(ctx, b.ID, model.BackupStatusUploading, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(ctx, b.ID)
	if got.Status != model.BackupStatusUploading {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusUploading)
	}

	if err := bs.UpdateStatus(ctx, b.ID, model.BackupStatusFailed, "upload failed"); err != nil {
		t.Fatalf("update status with error: %v", err)
	}
	got, _ = bs.GetByID(ctx, b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusFailed)
	}
	if got.ErrorMessage != "upload failed" {
		t.Errorf("error_message = %q, want %q", got.ErrorMessage, "upload failed")
	}
}

func TestBackupUpdateCompleted(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b, _ := bs.Create(ctx, "a.json.enc", 1)
	if err := bs.UpdateCompleted(ctx, b.ID, 2048); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, _ := bs.GetByID(ctx, b.ID)
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusCompleted)
	}
	if got.SizeBytes != 2048 {
		t.Errorf("size_bytes = %d, want 2048", got.SizeBytes)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestBackupListOrderAndLimit(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	bs.Create(ctx, "first.json.enc", 1)
	time.Sleep(10 * time.Millisecond)
	bs.Create(ctx, "second.json.enc", 2)
	time.Sleep(10 * time.Millisecond)
	bs.Create(ctx, "third.json.enc", 3)

	all, err := bs.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ObjectKey != "third.json.enc" {
		t.Errorf("first entry = %q, want %q", all[0].ObjectKey, "third.json.enc")
	}

	limited, err := bs.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2", len(limited))
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	bs.Create(ctx, "old.json.enc", 1)
	time.Sleep(50 * time.Millisecond)
	cutoff := time.Now().UTC()
	time.Sleep(50 * time.Millisecond)
	bs.Create(ctx, "new.json.enc", 1)

	keys, err := bs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "old.json.enc" {
		t.Fatalf("deleted keys = %v, want [old.json.enc]", keys)
	}

	remaining, _ := bs.List(ctx, 10)
	if len(remaining) != 1 || remaining[0].ObjectKey != "new.json.enc" {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestBackupLatestCompleted(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	if latest, err := bs.LatestCompleted(ctx); err != nil || latest != nil {
		t.Fatalf("empty latest = %v, %v", latest, err)
	}

	b1, _ := bs.Create(ctx, "first.json.enc", 1)
	bs.UpdateCompleted(ctx, b1.ID, 100)
	time.Sleep(10 * time.Millisecond)
	b2, _ := bs.Create(ctx, "second.json.enc", 2)
	bs.UpdateCompleted(ctx, b2.ID, 200)

	b3, _ := bs.Create(ctx, "failed.json.enc", 3)
	bs.UpdateStatus(ctx, b3.ID, model.BackupStatusFailed, "error")

	latest, err := bs.LatestCompleted(ctx)
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected latest, got nil")
	}
	if latest.ObjectKey != "second.json.enc" {
		t.Errorf("object_key = %q, want %q", latest.ObjectKey, "second.json.enc")
	}
}
