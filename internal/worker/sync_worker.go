package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentease/internal/domain"
	"rentease/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
	TaskFullExport   = "full_export"
)

// taskPayload is persisted in SyncTask.Payload as JSON.
type taskPayload struct {
	RentalID string         `json:"rental_id"`
	Rental   *models.Rental `json:"rental,omitempty"`
	Status   string         `json:"status,omitempty"`
}

// SyncQueueWorker drains the persisted sync queue into the spreadsheet.
// Tasks flow through three tiers: the in-memory channel for the common
// case, a redis list when one is configured, and the store's queue as the
// source of truth that survives restarts.
type SyncQueueWorker struct {
	records       domain.RecordStore
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewSyncQueueWorker builds a worker with sane defaults.
func NewSyncQueueWorker(records domain.RecordStore, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SyncQueueWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &SyncQueueWorker{
		records:       records,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueTask persists the task first, then schedules it via redis or the
// in-memory queue. A full queue is not an error: the polling loop picks the
// task up from the store.
func (w *SyncQueueWorker) EnqueueTask(ctx context.Context, taskType string, rentalID string, rental *models.Rental, status string) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if rentalID == "" && rental != nil {
		rentalID = rental.ID
	}
	if rentalID == "" && taskType != TaskFullExport {
		return errors.New("rental id is required")
	}

	payloadBytes, err := json.Marshal(taskPayload{
		RentalID: rentalID,
		Rental:   rental,
		Status:   status,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType: taskType,
		RentalID: rentalID,
		Payload:  payloadBytes,
		Status:   models.SyncStatusPending,
	}

	if err := w.records.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Str("task_id", syncTask.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SyncQueueWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sync worker started")
	defer w.logger.Info().Msg("sync worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.records.PendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending sync tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncQueueWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *SyncQueueWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncQueueWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncQueueWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload taskPayload
	if len(task.Payload) > 0 {
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
			return
		}
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.records.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("mark completed")
	}
}

func (w *SyncQueueWorker) handleTask(ctx context.Context, taskType string, payload taskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Rental == nil {
			return errors.New("rental payload missing")
		}
		return w.sheets.UpsertRental(ctx, payload.Rental)
	case TaskUpdateStatus:
		if payload.RentalID == "" || payload.Status == "" {
			return errors.New("rental id or status missing")
		}
		return w.sheets.UpdateRentalStatus(ctx, payload.RentalID, payload.Status)
	case TaskFullExport:
		rentals, err := w.records.Rentals(ctx)
		if err != nil {
			return fmt.Errorf("load rentals: %w", err)
		}
		return w.sheets.ReplaceRentalsSheet(ctx, rentals)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SyncQueueWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		if err := w.records.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Str("task_id", task.ID).Msg("mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := w.retryPolicy.NextRetryAt(time.Now(), attempt)
	if err := w.records.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("mark retry")
	}
}

func (w *SyncQueueWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.records.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SyncQueueWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncQueueWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("deadletter push")
	}
}
