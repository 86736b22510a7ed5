package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"rentease/internal/models"
	"rentease/internal/storage"
	"rentease/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeSheets struct {
	err         error
	upsertCalls int
	statusCalls int
	replaceRows int
}

func (f *fakeSheets) UpsertRental(ctx context.Context, r *models.Rental) error {
	f.upsertCalls++
	return f.err
}

func (f *fakeSheets) UpdateRentalStatus(ctx context.Context, rentalID, status string) error {
	f.statusCalls++
	return f.err
}

func (f *fakeSheets) ReplaceRentalsSheet(ctx context.Context, rentals []models.Rental) error {
	f.replaceRows = len(rentals)
	return f.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := store.Open(context.Background(), storage.NewMemoryBackend(), "test", nil, &logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestWorker(t *testing.T, sheets *fakeSheets, retry RetryPolicy) (*SyncQueueWorker, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	logger := zerolog.New(io.Discard)
	return NewSyncQueueWorker(s, sheets, nil, retry, &logger), s
}

func loadTask(t *testing.T, s *store.Store, wantStatus string) *models.SyncTask {
	t.Helper()
	// Completed and failed tasks are no longer pending; read the raw queue
	// through the export snapshot.
	snapshot, err := s.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var tasks []models.SyncTask
	if err := json.Unmarshal(snapshot["sync_queue"], &tasks); err != nil {
		t.Fatalf("decode sync queue: %v", err)
	}
	for i := range tasks {
		if tasks[i].Status == wantStatus {
			return &tasks[i]
		}
	}
	t.Fatalf("no task with status %s among %d tasks", wantStatus, len(tasks))
	return nil
}

func testRental(id string) *models.Rental {
	return &models.Rental{
		ID:         id,
		ListingID:  "l1",
		RenterID:   "u1",
		OwnerID:    "u2",
		StartDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Status:     models.StatusPending,
		TotalPrice: 30,
	}
}

func TestProcessTaskSuccess(t *testing.T) {
	sheets := &fakeSheets{}
	worker, s := newTestWorker(t, sheets, RetryPolicy{})
	ctx := context.Background()

	rental := testRental("r1")
	if err := worker.EnqueueTask(ctx, TaskUpsert, rental.ID, rental, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, ok := worker.tryLocalQueue()
	if !ok {
		t.Fatalf("expected task in local queue")
	}
	worker.processTask(ctx, &task)

	done := loadTask(t, s, models.SyncStatusCompleted)
	if done.ProcessedAt == nil {
		t.Fatalf("expected processed_at on completed task")
	}
	if sheets.upsertCalls != 1 {
		t.Fatalf("expected 1 upsert call, got %d", sheets.upsertCalls)
	}
}

func TestProcessTaskRetry(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("boom")}
	worker, s := newTestWorker(t, sheets, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second})
	ctx := context.Background()

	rental := testRental("r2")
	if err := worker.EnqueueTask(ctx, TaskUpsert, rental.ID, rental, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	retried := loadTask(t, s, models.SyncStatusRetry)
	if retried.RetryCount != 1 {
		t.Fatalf("expected retry_count=1, got %d", retried.RetryCount)
	}
	if retried.NextRetryAt == nil || retried.NextRetryAt.Before(time.Now()) {
		t.Fatalf("expected next_retry_at in the future, got %v", retried.NextRetryAt)
	}
	if retried.LastError != "boom" {
		t.Fatalf("expected last_error recorded, got %q", retried.LastError)
	}
}

func TestProcessTaskFail(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("fatal")}
	worker, s := newTestWorker(t, sheets, RetryPolicy{MaxRetries: 1})
	ctx := context.Background()

	rental := testRental("r3")
	worker.EnqueueTask(ctx, TaskUpsert, rental.ID, rental, "")
	task, _ := worker.tryLocalQueue()
	worker.processTask(ctx, &task)

	failed := loadTask(t, s, models.SyncStatusFailed)
	if failed.ProcessedAt == nil {
		t.Fatalf("expected processed_at on failed task")
	}
}

func TestHandleTask(t *testing.T) {
	sheets := &fakeSheets{}
	worker, s := newTestWorker(t, sheets, RetryPolicy{MaxRetries: 3})
	ctx := context.Background()

	t.Run("Upsert", func(t *testing.T) {
		if err := worker.handleTask(ctx, TaskUpsert, taskPayload{Rental: testRental("r1")}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.upsertCalls != 1 {
			t.Fatalf("expected 1 upsert call, got %d", sheets.upsertCalls)
		}
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		if err := worker.handleTask(ctx, TaskUpdateStatus, taskPayload{RentalID: "r1", Status: models.StatusApproved}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.statusCalls != 1 {
			t.Fatalf("expected 1 status call, got %d", sheets.statusCalls)
		}
	})

	t.Run("UpdateStatusMissingFields", func(t *testing.T) {
		if err := worker.handleTask(ctx, TaskUpdateStatus, taskPayload{}); err == nil {
			t.Fatalf("expected error for missing rental id")
		}
	})

	t.Run("FullExport", func(t *testing.T) {
		if _, err := s.CreateRental(ctx, *testRental("")); err != nil {
			t.Fatalf("create rental: %v", err)
		}
		if err := worker.handleTask(ctx, TaskFullExport, taskPayload{}); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if sheets.replaceRows != 1 {
			t.Fatalf("expected full export of 1 rental, got %d", sheets.replaceRows)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if err := worker.handleTask(ctx, "telepathy", taskPayload{}); err == nil {
			t.Fatalf("expected error for unknown task type")
		}
	})
}

func TestEnqueueTaskValidation(t *testing.T) {
	worker, _ := newTestWorker(t, &fakeSheets{}, RetryPolicy{})
	ctx := context.Background()

	if err := worker.EnqueueTask(ctx, "", "r1", nil, ""); err == nil {
		t.Fatalf("expected error for empty task type")
	}
	if err := worker.EnqueueTask(ctx, TaskUpsert, "", nil, ""); err == nil {
		t.Fatalf("expected error for missing rental id")
	}
	// Full export needs no rental.
	if err := worker.EnqueueTask(ctx, TaskFullExport, "", nil, ""); err != nil {
		t.Fatalf("enqueue full export: %v", err)
	}
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sheets := &fakeSheets{}
	s := newTestStore(t)
	logger := zerolog.New(io.Discard)
	worker := NewSyncQueueWorker(s, sheets, client, RetryPolicy{}, &logger)
	ctx := context.Background()

	rental := testRental("r9")
	if err := worker.EnqueueTask(ctx, TaskUpsert, rental.ID, rental, ""); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// Task went to redis, not the local channel.
	if _, ok := worker.tryLocalQueue(); ok {
		t.Fatalf("expected empty local queue when redis accepts the task")
	}

	task, ok := worker.tryRedis(ctx)
	if !ok {
		t.Fatalf("expected task from redis")
	}
	worker.processTask(ctx, &task)

	if sheets.upsertCalls != 1 {
		t.Fatalf("expected 1 upsert call, got %d", sheets.upsertCalls)
	}
}

func TestDeadLetterOnExhaustedRetries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sheets := &fakeSheets{err: errors.New("always broken")}
	s := newTestStore(t)
	logger := zerolog.New(io.Discard)
	worker := NewSyncQueueWorker(s, sheets, client, RetryPolicy{MaxRetries: 1}, &logger)
	ctx := context.Background()

	rental := testRental("r10")
	worker.EnqueueTask(ctx, TaskUpsert, rental.ID, rental, "")
	task, ok := worker.tryRedis(ctx)
	if !ok {
		t.Fatalf("expected task from redis")
	}
	worker.processTask(ctx, &task)

	if n, err := client.LLen(ctx, worker.deadLetterKey).Result(); err != nil || n != 1 {
		t.Fatalf("expected 1 deadletter entry, got %d (err=%v)", n, err)
	}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3}
	if policy.Exhausted(2) {
		t.Fatal("attempt 2 of 3 should not be exhausted")
	}
	if !policy.Exhausted(3) {
		t.Fatal("attempt 3 of 3 should be exhausted")
	}
}
