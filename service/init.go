/*
 * @module service/init
 * @description Service initialization: database connection, migrations, and global service instances
 * @architecture layered architecture - service bootstrap
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow package init -> connect database -> run migrations -> construct services -> start background workers
 * @rules initialization failures are fatal; the process must not serve requests with a partial service graph
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, controlflow-service/service/*
 * @refs main.go
 */

package service

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"controlflow-service/logger"
	"controlflow-service/service/cleanup"
	"controlflow-service/service/config"
	"controlflow-service/service/database"
	"controlflow-service/service/etiqueta"
	"controlflow-service/service/event"
	"controlflow-service/service/intake"
	"controlflow-service/service/ocr"
	"controlflow-service/service/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// DB is the shared database handle.
	DB *gorm.DB

	GlobalConfigService         *config.ConfigService
	GlobalEtiquetaService       *etiqueta.Service
	GlobalProductService        *ProductService
	GlobalInspectionPlanService *InspectionPlanService
	GlobalRNCService            *RNCService
	GlobalEventService          *event.EventService
	GlobalCleanupService        *cleanup.ResultCleanupService
	GlobalMQTTIntake            *intake.MQTTIntake
	GlobalKafkaPublisher        *event.KafkaPublisher
)

// TempUploadDir holds in-flight multipart uploads before scoring.
const TempUploadDir = "./data/tmp-uploads"

func init() {
	// Test binaries build their own service graph against sqlite.
	if testing.Testing() {
		return
	}

	logger.InitLogger()

	if err := initDatabase(); err != nil {
		slog.Error("database initialization failed", "error", err)
		os.Exit(1)
	}

	if err := runMigrations(); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	if err := initServices(); err != nil {
		slog.Error("service initialization failed", "error", err)
		os.Exit(1)
	}

	slog.Info("all services initialized")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// initDatabase connects to Postgres from DATABASE_URL or the discrete DB_*
// variables.
func initDatabase() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "controlflow")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	slog.Info("database connected")
	return nil
}

// runMigrations applies schema migrations and seed data.
func runMigrations() error {
	if err := database.AutoMigrate(DB); err != nil {
		return err
	}
	return database.InitializeData(DB)
}

// initServices constructs the service graph and starts background workers.
func initServices() error {
	GlobalConfigService = config.NewConfigService(DB)

	fileStore, err := storage.NewFileStore(getEnvWithDefault("REFERENCE_IMAGE_DIR", ""))
	if err != nil {
		return fmt.Errorf("initializing reference image store: %w", err)
	}

	if err := os.MkdirAll(TempUploadDir, 0o755); err != nil {
		return fmt.Errorf("creating temp upload dir: %w", err)
	}

	ocrTimeout := time.Duration(GlobalConfigService.GetOcrTimeoutSeconds()) * time.Second
	engine := ocr.NewGoogleVisionEngine(ocrTimeout)

	GlobalEventService = event.NewEventService(DB, true)
	GlobalKafkaPublisher = event.NewKafkaPublisher()

	GlobalEtiquetaService = etiqueta.NewService(DB, engine, fileStore)
	GlobalEtiquetaService.AddPublisher(GlobalEventService)
	if GlobalKafkaPublisher != nil {
		GlobalEtiquetaService.AddPublisher(GlobalKafkaPublisher)
	}
	GlobalProductService = NewProductService(DB)
	GlobalInspectionPlanService = NewInspectionPlanService(DB)
	GlobalRNCService = NewRNCService(DB)

	GlobalCleanupService = cleanup.NewResultCleanupService(DB, GlobalConfigService, TempUploadDir)
	if err := GlobalCleanupService.Start(); err != nil {
		return fmt.Errorf("starting cleanup service: %w", err)
	}

	GlobalMQTTIntake = intake.NewMQTTIntake(GlobalEtiquetaService)
	if GlobalMQTTIntake != nil {
		if err := GlobalMQTTIntake.Start(); err != nil {
			// MQTT is an optional intake path; the HTTP API stays up without it.
			slog.Warn("MQTT intake failed to start", "error", err)
		}
	}

	return nil
}
