package pgStore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/akolanti/studyfellow/pkg/logger_i"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func getLogger() gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)
}

// Open connects to postgres and migrates the document, message and post
// tables.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         getLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&documentRow{}, &messageRow{}, &postRow{}); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger_i.NewLogger("Postgres Store").Info("Postgres store initialised")
	return db, nil
}
