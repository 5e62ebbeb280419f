package store

import (
	"fmt"

	"siteclock.com/siteclock/tracker/model"
)

// AppendAudit inserts a proof record. Audit rows are append-only: there
// is deliberately no update or delete counterpart.
func (s *Store) AppendAudit(rec *model.AuditRecord) error {
	return s.DB.Create(rec).Error
}

func (s *Store) DirtyAudit() ([]model.AuditRecord, error) {
	var recs []model.AuditRecord
	if err := s.DB.Where("synced_at IS NULL").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch dirty audit records: %w", err)
	}
	return recs, nil
}

func (s *Store) MarkAuditSynced(id string) error {
	now := s.now()
	return s.DB.Model(&model.AuditRecord{}).
		Where("id = ?", id).
		Update("synced_at", now).Error
}
