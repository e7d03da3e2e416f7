package db

import (
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// hlogWriter routes gorm's logger through hlog so SQL logs share the service format.
type hlogWriter struct{}

func (hlogWriter) Printf(format string, args ...interface{}) {
	hlog.Infof(format, args...)
}

// NewGormDB opens a GORM DB for dbType "mysql" or "sqlite" (the default).
func NewGormDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("a DSN is required for mysql")
		}
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		if dsn == "" {
			dsn = "gorm.db"
			hlog.Infof("Using default SQLite DSN: %s", dsn)
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	newLogger := logger.New(
		hlogWriter{},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	hlog.Infof("Database connection established (%s).", dialector.Name())
	return db, nil
}

// AutoMigrate performs auto-migration for the given GORM models.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	hlog.Info("Database migration completed successfully for provided models.")
	return nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
