package database

import (
	"fmt"
	"log/slog"

	"siteaudit-api/internal/domain/billing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSQLitePath is used when no DB_URL is configured.
const DefaultSQLitePath = "siteaudit.db"

// Open connects to postgres, or to a local sqlite file when dsn is empty.
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if dsn == "" {
		slog.Warn("DB_URL not set, using local sqlite", "path", DefaultSQLitePath)
		dialector = sqlite.Open(DefaultSQLitePath)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&billing.UserBilling{},
		&billing.Entitlement{},
		&billing.CheckoutOutcome{},
		&billing.ReportPurchase{},
		&billing.ProcessedNotification{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// OpenInMemory returns a migrated sqlite database for tests and local tooling.
func OpenInMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Each connection would get its own in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
