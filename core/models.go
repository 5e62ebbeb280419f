package core

import "time"

// Server-side rows. Zones are shared across the tenant; day and audit
// records are keyed by worker. updated_at carries the device's edit
// time and drives last-writer-wins, so gorm must not restamp it: every
// write path sets it explicitly and uses UpdateColumns or OnConflict
// column lists.

type Zone struct {
	ID        string  `gorm:"column:id;primaryKey"`
	Name      string  `gorm:"column:name"`
	Latitude  float64 `gorm:"column:latitude"`
	Longitude float64 `gorm:"column:longitude"`
	Radius    float64 `gorm:"column:radius"`
	Color     string  `gorm:"column:color"`
	Status    string  `gorm:"column:status"`

	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (Zone) TableName() string {
	return "zones"
}

type DayRecord struct {
	ID           string     `gorm:"column:id;primaryKey"`
	WorkerID     string     `gorm:"column:worker_id;index:idx_worker_date"`
	Date         string     `gorm:"column:date;index:idx_worker_date"`
	TotalMinutes int        `gorm:"column:total_minutes"`
	BreakMinutes int        `gorm:"column:break_minutes"`
	ZoneID       string     `gorm:"column:zone_id"`
	ZoneName     string     `gorm:"column:zone_name"`
	FirstEntry   *time.Time `gorm:"column:first_entry"`
	LastExit     *time.Time `gorm:"column:last_exit"`
	Source       string     `gorm:"column:source"`
	Verified     bool       `gorm:"column:verified"`
	Kind         string     `gorm:"column:kind"`
	Note         string     `gorm:"column:note"`

	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (DayRecord) TableName() string {
	return "day_records"
}

type AuditRecord struct {
	ID         string    `gorm:"column:id;primaryKey"`
	WorkerID   string    `gorm:"column:worker_id;index"`
	Kind       string    `gorm:"column:kind"`
	ZoneID     string    `gorm:"column:zone_id"`
	SessionID  string    `gorm:"column:session_id"`
	Latitude   float64   `gorm:"column:latitude"`
	Longitude  float64   `gorm:"column:longitude"`
	Accuracy   float64   `gorm:"column:accuracy"`
	RecordedAt time.Time `gorm:"column:recorded_at"`

	ReceivedAt time.Time `gorm:"column:received_at"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
