package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteclock.com/siteclock/tracker/model"
)

// LoadActiveSession returns the persisted open session, or nil when the
// worker is not currently on site.
func (s *Store) LoadActiveSession(workerID string) (*model.ActiveSession, error) {
	var sess model.ActiveSession
	err := s.DB.Where("worker_id = ?", workerID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) SaveActiveSession(sess *model.ActiveSession) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}},
		UpdateAll: true,
	}).Create(sess).Error
}

func (s *Store) ClearActiveSession(workerID string) error {
	return s.DB.Where("worker_id = ?", workerID).Delete(&model.ActiveSession{}).Error
}
