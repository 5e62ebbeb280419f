package model

import "time"

// Audit event kinds.
const (
	AuditEntry      = "entry"
	AuditExit       = "exit"
	AuditDispute    = "dispute"
	AuditCorrection = "correction"
)

// AuditRecord is an append-only proof record: where the device was when
// an entry/exit/dispute/correction happened. Rows are never updated
// after insert, only marked synced. Ledger computation never reads them.
type AuditRecord struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	WorkerID  string `gorm:"column:worker_id;not null;index" json:"workerId"`
	Kind      string `gorm:"column:kind;not null" json:"kind"`
	ZoneID    string `gorm:"column:zone_id" json:"zoneId"`
	SessionID string `gorm:"column:session_id" json:"sessionId"`

	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
	Accuracy  float64 `gorm:"column:accuracy" json:"accuracy"`

	RecordedAt time.Time  `gorm:"column:recorded_at;not null" json:"recordedAt"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"createdAt"`
	SyncedAt   *time.Time `gorm:"column:synced_at" json:"syncedAt"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}

func (a *AuditRecord) Dirty() bool {
	return a.SyncedAt == nil
}
