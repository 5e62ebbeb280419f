package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"siteclock.com/siteclock/tracker/model"
)

// Store is the device-local durable store: four tables backed by a
// single sqlite file. Opening failure is fatal to the caller since no
// reconciliation can proceed without it.
type Store struct {
	DB  *gorm.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Zone{},
		&model.DayRecord{},
		&model.AuditRecord{},
		&model.ActiveSession{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	return &Store{DB: db, now: time.Now}, nil
}

// SetClock overrides the store clock. Tests use this to pin synced/deleted
// timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
