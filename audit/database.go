package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/waybridge/config"
)

// auditRecord is the relational form of an Entry.
type auditRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	EntryID   string    `gorm:"size:64;uniqueIndex"`
	RequestID string    `gorm:"size:64;index"`
	Timestamp time.Time `gorm:"index"`
	Input     string
	Output    string
}

func (auditRecord) TableName() string { return "audit_records" }

// DatabaseBackend appends entries to a relational table. The dialect is
// selected by config; sqlite is the default for a single-host bridge.
type DatabaseBackend struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDatabaseBackend opens the configured database and migrates the audit
// table.
func NewDatabaseBackend(cfg config.DatabaseAuditConfig, logger *zap.Logger) (*DatabaseBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := openDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.AutoMigrate(&auditRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit table: %w", err)
	}

	return &DatabaseBackend{
		db:     db,
		logger: logger.With(zap.String("component", "audit_db")),
	}, nil
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown audit database driver %q", driver)
	}
}

// Write inserts one record.
func (d *DatabaseBackend) Write(ctx context.Context, entry *Entry) error {
	rec := auditRecord{
		EntryID:   entry.ID,
		RequestID: entry.RequestID,
		Timestamp: entry.Timestamp,
		Input:     entry.Input,
		Output:    entry.Output,
	}
	if err := d.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DatabaseBackend) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
