package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/yoockh/yoodefence/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	SQLDB   *gorm.DB
	sqlOnce sync.Once
	sqlErr  error
)

// InitSQL opens the relational store once and migrates its tables.
func InitSQL(cfg DatabaseConfig) (*gorm.DB, error) {
	sqlOnce.Do(func() {
		SQLDB, sqlErr = OpenSQL(cfg)
	})
	return SQLDB, sqlErr
}

func OpenSQL(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DB_DSN environment variable is not set")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "yoodefence.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.AutoMigrate(&models.ProjectFileRecord{}, &models.CallLog{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
