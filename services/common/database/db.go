package database

import (
	"fmt"
	"time"

	"github.com/yashrajoria/storefront-backend/services/common/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database and configures the connection pool.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := buildDialector(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	logLevel := logger.Warn
	if cfg.IsProduction() {
		logLevel = logger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	zap.L().Info("connected to database", zap.String("driver", cfg.DBDriver))
	return db, nil
}

func buildDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on"), nil
	case "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres)", cfg.DBDriver)
	}
}

// Close releases the underlying pool.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// IsPostgres reports whether row locks and postgres-only SQL are available.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
