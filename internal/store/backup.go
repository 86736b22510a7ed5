package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// BackupConfig controls the snapshot schedule and retention.
type BackupConfig struct {
	Enabled       bool
	Interval      time.Duration
	RetentionDays int
	StoragePath   string
}

// BackupService periodically snapshots every collection to a timestamped
// JSON file and prunes snapshots older than the retention window.
type BackupService struct {
	store  *Store
	config BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(store *Store, cfg BackupConfig, logger *zerolog.Logger) *BackupService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &BackupService{store: store, config: cfg, logger: logger}
}

// Start runs the backup loop until the context is cancelled. The first
// snapshot is taken immediately.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	s.logger.Info().Dur("interval", s.config.Interval).Msg("backup service started")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PerformBackup(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup writes one snapshot file and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snapshot, err := s.store.Export(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(s.config.StoragePath, fmt.Sprintf("backup_%s.json", timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("backup written")
	return path, nil
}

// CleanupOldBackups removes snapshot files older than the retention window.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.config.StoragePath, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Error().Err(err).Str("path", path).Msg("failed to remove old backup")
			} else {
				s.logger.Info().Str("path", path).Msg("old backup removed")
			}
		}
	}
}
