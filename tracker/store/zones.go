package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteclock.com/siteclock/tracker/model"
)

// ActiveZones returns the zone set the validator should track.
func (s *Store) ActiveZones() ([]model.Zone, error) {
	var zones []model.Zone
	err := s.DB.
		Where("status = ? AND deleted_at IS NULL", model.ZoneStatusActive).
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active zones: %w", err)
	}
	return zones, nil
}

func (s *Store) GetZone(id string) (*model.Zone, error) {
	var zone model.Zone
	err := s.DB.Where("id = ?", id).First(&zone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// SaveZone upserts a zone and marks it dirty for the next sync cycle.
func (s *Store) SaveZone(zone *model.Zone) error {
	zone.ClampRadius()
	zone.SyncedAt = nil
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(zone).Error
}

// SoftDeleteZone flips the zone into a tombstone. The row is only
// purged once the backend acknowledges the deletion.
func (s *Store) SoftDeleteZone(id string) error {
	now := s.now()
	return s.DB.Model(&model.Zone{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.ZoneStatusDeleted,
			"deleted_at": now,
			"synced_at":  nil,
		}).Error
}

func (s *Store) PurgeZone(id string) error {
	return s.DB.Unscoped().Where("id = ?", id).Delete(&model.Zone{}).Error
}

func (s *Store) DirtyZones() ([]model.Zone, error) {
	var zones []model.Zone
	if err := s.DB.Where("synced_at IS NULL").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch dirty zones: %w", err)
	}
	return zones, nil
}

func (s *Store) MarkZoneSynced(id string) error {
	now := s.now()
	return s.DB.Model(&model.Zone{}).
		Where("id = ?", id).
		Update("synced_at", now).Error
}

func (s *Store) TouchZoneSeen(id string) error {
	now := s.now()
	return s.DB.Model(&model.Zone{}).
		Where("id = ?", id).
		Update("last_seen_at", now).Error
}
