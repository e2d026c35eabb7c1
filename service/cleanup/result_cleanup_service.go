/*
 * @module service/cleanup/result_cleanup_service
 * @description Retention cleanup: removes expired inspection results and stale temp uploads on a cron schedule
 * @architecture layered architecture - business service layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow cron tick -> read retention config -> delete expired rows -> delete stale temp files
 * @rules cleanup must never interfere with in-flight scoring; temp files younger than an hour are left alone
 * @dependencies controlflow-service/service/config, gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/config/config_service.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"controlflow-service/service/config"
	"controlflow-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// tempFileMinAge protects files still being written by active requests.
const tempFileMinAge = time.Hour

// ResultCleanupService deletes expired inspection data.
type ResultCleanupService struct {
	db            *gorm.DB
	configService *config.ConfigService
	tempDir       string
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
}

// NewResultCleanupService creates the cleanup service.
func NewResultCleanupService(db *gorm.DB, configService *config.ConfigService, tempDir string) *ResultCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &ResultCleanupService{
		db:            db,
		configService: configService,
		tempDir:       tempDir,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start schedules the cleanup job.
func (s *ResultCleanupService) Start() error {
	if s.started {
		return fmt.Errorf("cleanup service already started")
	}

	spec := s.configService.GetCleanupCron()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.CleanupExpired(s.ctx); err != nil {
			slog.Error("cleanup run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling cleanup job (%s): %w", spec, err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("result cleanup scheduled", "cron", spec)
	return nil
}

// Stop cancels the schedule.
func (s *ResultCleanupService) Stop() {
	s.cancel()
	if s.started {
		s.cron.Stop()
		s.started = false
	}
}

// CleanupExpired runs one full cleanup pass.
func (s *ResultCleanupService) CleanupExpired(ctx context.Context) error {
	startTime := time.Now()

	retentionDays := s.configService.GetResultRetentionDays()
	deleted, err := s.CleanupResults(ctx, retentionDays)
	if err != nil {
		slog.Error("failed to clean up inspection results", "error", err)
	} else {
		slog.Info("inspection results cleaned up", "deleted_count", deleted, "retention_days", retentionDays)
	}

	tempRemoved := s.cleanupTempFiles()

	slog.Info("cleanup finished",
		"results_deleted", deleted,
		"temp_files_removed", tempRemoved,
		"duration_ms", time.Since(startTime).Milliseconds())

	return err
}

// CleanupResults deletes results older than the retention window.
func (s *ResultCleanupService) CleanupResults(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).
		Where("computed_at < ?", cutoffDate).
		Delete(&models.InspectionResult{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired inspection results: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// cleanupTempFiles removes upload leftovers older than tempFileMinAge.
func (s *ResultCleanupService) cleanupTempFiles() int {
	if s.tempDir == "" {
		return 0
	}

	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		slog.Warn("failed to read temp upload dir", "dir", s.tempDir, "error", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < tempFileMinAge {
			continue
		}
		path := filepath.Join(s.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove stale temp file", "path", path, "error", err)
			continue
		}
		removed++
	}

	return removed
}
