package database

import (
	"fmt"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/config"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}

	newLogger := logger.New(
		&log.Logger,
		logger.Config{
			SlowThreshold:             cfg.SlowThreshold(),
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statements for pooled transaction mode
	}), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("Database connection established")
	return db, nil
}

// Migrate creates or updates every table this service owns or reads.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.Warehouse{},
		&model.Supplier{},
		&model.User{},
		&model.InventoryRecord{},
		&model.StockAdjustment{},
		&model.StockAdjustmentDetail{},
		&model.Transaction{},
		&model.TransactionDetail{},
		&model.ReturnTransaction{},
		&model.ReturnTransactionDetail{},
		&model.ProductionSession{},
		&model.ProductionTarget{},
		&model.PackageSubmission{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// One running session per device
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_production_running_device
		 ON production_sessions (device_code) WHERE status = 'Running'`,
	).Error
}
