package models

import "time"

// SyncTask is a persisted unit of outbound sync work (Google Sheets export).
type SyncTask struct {
	ID          string     `json:"id"`
	TaskType    string     `json:"task_type"`
	RentalID    string     `json:"rental_id"`
	Payload     []byte     `json:"payload,omitempty"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
