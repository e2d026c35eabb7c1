/*
 * @module service/config/config_service
 * @description Runtime configuration read from the system_configs table with env/default fallbacks
 * @architecture layered architecture - configuration layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow lookup key in DB -> fall back to environment -> fall back to default
 * @rules configuration reads never fail the caller; defaults always apply
 * @dependencies gorm.io/gorm, github.com/spf13/cast
 * @refs service/cleanup/result_cleanup_service.go, service/init.go
 */

package config

import (
	"errors"
	"os"

	"controlflow-service/service/models"

	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// Defaults for tunables not present in system_configs.
const (
	DefaultResultRetentionDays = 365
	DefaultOcrTimeoutSeconds   = 30
	DefaultUploadRateLimit     = 30 // requests per window per client
	DefaultRateWindowSeconds   = 60
	DefaultCleanupCron         = "0 0 3 * * *" // daily at 03:00
)

// Config keys.
const (
	KeyResultRetentionDays = "result_retention_days"
	KeyOcrTimeoutSeconds   = "ocr_timeout_seconds"
	KeyUploadRateLimit     = "upload_rate_limit"
	KeyRateWindowSeconds   = "rate_window_seconds"
	KeyCleanupCron         = "cleanup_cron"
)

// ConfigService reads runtime settings.
type ConfigService struct {
	db  *gorm.DB
	env string
}

// NewConfigService creates the config service for the current environment
// (APP_ENV, defaulting to "production").
func NewConfigService(db *gorm.DB) *ConfigService {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "production"
	}
	return &ConfigService{db: db, env: env}
}

// get resolves one key: system_configs row first, env var second.
func (s *ConfigService) get(key string) (string, bool) {
	var cfg models.SystemConfig
	err := s.db.Where("key = ? AND environment = ?", key, s.env).First(&cfg).Error
	if err == nil {
		return cfg.Value, true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// DB unavailable for config reads; environment still works.
		return lookupEnv(key)
	}
	return lookupEnv(key)
}

func lookupEnv(key string) (string, bool) {
	if v := os.Getenv("CF_" + key); v != "" {
		return v, true
	}
	return "", false
}

// GetInt reads an integer setting with a default.
func (s *ConfigService) GetInt(key string, def int) int {
	if v, ok := s.get(key); ok {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return def
}

// GetString reads a string setting with a default.
func (s *ConfigService) GetString(key string, def string) string {
	if v, ok := s.get(key); ok {
		return v
	}
	return def
}

// GetResultRetentionDays returns how long inspection results are kept.
func (s *ConfigService) GetResultRetentionDays() int {
	return s.GetInt(KeyResultRetentionDays, DefaultResultRetentionDays)
}

// GetOcrTimeoutSeconds returns the per-call OCR timeout.
func (s *ConfigService) GetOcrTimeoutSeconds() int {
	return s.GetInt(KeyOcrTimeoutSeconds, DefaultOcrTimeoutSeconds)
}

// GetUploadRateLimit returns requests-per-window for OCR-heavy routes.
func (s *ConfigService) GetUploadRateLimit() int {
	return s.GetInt(KeyUploadRateLimit, DefaultUploadRateLimit)
}

// GetRateWindowSeconds returns the rate-limit window length.
func (s *ConfigService) GetRateWindowSeconds() int {
	return s.GetInt(KeyRateWindowSeconds, DefaultRateWindowSeconds)
}

// GetCleanupCron returns the retention cleanup schedule.
func (s *ConfigService) GetCleanupCron() string {
	return s.GetString(KeyCleanupCron, DefaultCleanupCron)
}
