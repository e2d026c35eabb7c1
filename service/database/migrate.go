/*
 * @module service/database/migrate
 * @description Database migration: creates and updates the table structure at startup
 * @architecture data access layer - migration management
 * @documentReference dev_docs/model.md
 * @stateFlow executed once during application startup
 * @rules table structure always matches the model definitions
 * @dependencies controlflow-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"controlflow-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the database table structure.
func AutoMigrate(db *gorm.DB) error {
	log.Println("starting database migration...")

	// Catalog and planning tables
	err := db.AutoMigrate(
		&models.Product{},
		&models.InspectionPlan{},
		&models.PlanStep{},
	)
	if err != nil {
		return err
	}

	// Etiqueta inspection tables
	err = db.AutoMigrate(
		&models.EtiquetaQuestion{},
		&models.InspectionResult{},
	)
	if err != nil {
		return err
	}

	// Quality follow-up and platform tables
	err = db.AutoMigrate(
		&models.NonConformance{},
		&models.SystemConfig{},
		&models.SSEEvent{},
	)
	if err != nil {
		return err
	}

	log.Println("database migration finished")
	return nil
}

// InitializeData seeds configuration rows that must exist.
func InitializeData(db *gorm.DB) error {
	defaults := []models.SystemConfig{
		{ID: "cfg-result-retention", Key: "result_retention_days", Value: "365", Environment: "production", Description: "days inspection results are kept before cleanup"},
		{ID: "cfg-ocr-timeout", Key: "ocr_timeout_seconds", Value: "30", Environment: "production", Description: "per-call OCR extraction timeout"},
	}

	for _, cfg := range defaults {
		var existing models.SystemConfig
		err := db.Where("key = ? AND environment = ?", cfg.Key, cfg.Environment).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
