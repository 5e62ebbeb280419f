package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"siteclock.com/siteclock/tracker/model"
)

// GetDay returns the live (non-deleted) record for a worker/date, or
// nil when none exists.
func (s *Store) GetDay(workerID, date string) (*model.DayRecord, error) {
	var rec model.DayRecord
	err := s.DB.
		Where("worker_id = ? AND date = ? AND deleted_at IS NULL", workerID, date).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetDayAny also returns soft-deleted rows so an upsert can resurrect
// them instead of inserting a duplicate for the same (worker, date).
func (s *Store) GetDayAny(workerID, date string) (*model.DayRecord, error) {
	var rec model.DayRecord
	err := s.DB.
		Where("worker_id = ? AND date = ?", workerID, date).
		Order("updated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetDayByID(id string) (*model.DayRecord, error) {
	var rec model.DayRecord
	err := s.DB.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveDay writes the full row and marks it dirty.
func (s *Store) SaveDay(rec *model.DayRecord) error {
	rec.SyncedAt = nil
	return s.DB.Save(rec).Error
}

// SoftDeleteDay tombstones the record until the remote delete is
// acknowledged.
func (s *Store) SoftDeleteDay(id string) error {
	now := s.now()
	return s.DB.Model(&model.DayRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"synced_at":  nil,
		}).Error
}

func (s *Store) PurgeDay(id string) error {
	return s.DB.Unscoped().Where("id = ?", id).Delete(&model.DayRecord{}).Error
}

func (s *Store) DirtyDays() ([]model.DayRecord, error) {
	var recs []model.DayRecord
	if err := s.DB.Where("synced_at IS NULL").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch dirty day records: %w", err)
	}
	return recs, nil
}

func (s *Store) MarkDaySynced(id string) error {
	now := s.now()
	return s.DB.Model(&model.DayRecord{}).
		Where("id = ?", id).
		Update("synced_at", now).Error
}

// DaysInRange lists live records for reporting, ordered by date.
func (s *Store) DaysInRange(workerID, from, to string) ([]model.DayRecord, error) {
	var recs []model.DayRecord
	err := s.DB.
		Where("worker_id = ? AND date >= ? AND date <= ? AND deleted_at IS NULL", workerID, from, to).
		Order("date").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day records: %w", err)
	}
	return recs, nil
}
