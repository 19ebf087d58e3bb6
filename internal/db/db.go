package db

import (
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stylenest/club/internal/models"
)

var conn *gorm.DB

// Open opens a SQLite database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.Subscription{},
	); err != nil {
		return nil, err
	}

	// Composite indexes that GORM doesn't auto-create from struct tags.
	// The scheduler loops scan on (status, ends_at); winback joins payments
	// on (tg_id, status).
	gdb.Exec("CREATE INDEX IF NOT EXISTS idx_subs_status_ends ON subscriptions(status, ends_at)")
	gdb.Exec("CREATE INDEX IF NOT EXISTS idx_payments_tg_status ON payments(tg_id, status)")

	return gdb, nil
}

func Init(path string) error {
	gdb, err := Open(path)
	if err != nil {
		return err
	}
	conn = gdb
	slog.Info("database ready (sqlite)", "path", path)
	return nil
}

func Conn() *gorm.DB {
	return conn
}
