package store

import (
	"context"
	"time"

	"rentease/internal/models"
)

// CreateSyncTask persists an outbound sync work item.
func (s *Store) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []models.SyncTask
	if err := s.loadCollection(ctx, keySyncQueue, &tasks); err != nil {
		return err
	}

	task.ID = s.newID()
	task.CreatedAt = s.now()
	if task.Status == "" {
		task.Status = models.SyncStatusPending
	}

	tasks = append(tasks, *task)
	return s.saveCollection(ctx, keySyncQueue, tasks)
}

// PendingSyncTasks returns up to limit tasks that are due for processing,
// oldest first.
func (s *Store) PendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	var tasks []models.SyncTask
	if err := s.loadCollection(ctx, keySyncQueue, &tasks); err != nil {
		return nil, err
	}

	now := s.now()
	var due []models.SyncTask
	for _, t := range tasks {
		if t.Status != models.SyncStatusPending && t.Status != models.SyncStatusRetry {
			continue
		}
		if t.NextRetryAt != nil && t.NextRetryAt.After(now) {
			continue
		}
		due = append(due, t)
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

// UpdateSyncTaskStatus records the outcome of a processing attempt. Retry
// bumps the retry counter; completed and failed stamp the processing time.
func (s *Store) UpdateSyncTaskStatus(ctx context.Context, id, status, errMsg string, nextRetryAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []models.SyncTask
	if err := s.loadCollection(ctx, keySyncQueue, &tasks); err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks[i].Status = status
		tasks[i].LastError = errMsg
		tasks[i].NextRetryAt = nextRetryAt
		switch status {
		case models.SyncStatusRetry:
			tasks[i].RetryCount++
		case models.SyncStatusCompleted, models.SyncStatusFailed:
			done := s.now()
			tasks[i].ProcessedAt = &done
		}
		return s.saveCollection(ctx, keySyncQueue, tasks)
	}
	return nil
}
