package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func TestIdempotencyRepository_CreateProcessing(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	record, err := repo.CreateProcessing("key-1", "hash-1", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}
}

func TestIdempotencyRepository_DuplicateKey(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected already-exists, got %v", err)
	}

	_, err = repo.CreateProcessing("key-1", "hash-2", time.Time{})
	if !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}
}

func TestIdempotencyRepository_MarkDoneAndGet(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("key-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.MarkDone("key-1", []byte(`{"success":true}`), 200); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done, got %s", record.Status)
	}
	if record.HTTPStatus != 200 {
		t.Fatalf("expected status 200, got %d", record.HTTPStatus)
	}
	if string(record.ResponseBody) != `{"success":true}` {
		t.Fatalf("unexpected body %s", record.ResponseBody)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	if _, err := repo.CreateProcessing("expired", "hash-1", past); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("alive", "hash-2", future); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := repo.DeleteExpired(time.Now().UTC(), 100)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	if _, err := repo.Get("alive"); err != nil {
		t.Fatalf("alive record must survive: %v", err)
	}
	if _, err := repo.Get("expired"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
