package model

import "time"

// Provenance of a day record's values.
const (
	SourceAutomatic = "automatic"
	SourceManual    = "manual"
	SourceCorrected = "corrected"
)

// Entry kinds.
const (
	KindWork    = "work"
	KindWeather = "weather"
	KindSick    = "sick"
	KindDayOff  = "dayoff"
	KindHoliday = "holiday"
)

// DayRecord is the authoritative work-time record for one worker on one
// calendar date. At most one non-deleted row exists per (worker, date).
type DayRecord struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	WorkerID string `gorm:"column:worker_id;not null;index:idx_day_records_worker_date" json:"workerId"`
	Date     string `gorm:"column:date;not null;index:idx_day_records_worker_date" json:"date"` // yyyy-MM-dd

	TotalMinutes int    `gorm:"column:total_minutes;not null;default:0" json:"totalMinutes"`
	BreakMinutes int    `gorm:"column:break_minutes;not null;default:0" json:"breakMinutes"`
	ZoneID       string `gorm:"column:zone_id" json:"zoneId"`
	ZoneName     string `gorm:"column:zone_name" json:"zoneName"`

	FirstEntry *time.Time `gorm:"column:first_entry" json:"firstEntry"`
	LastExit   *time.Time `gorm:"column:last_exit" json:"lastExit"`

	Source   string `gorm:"column:source;not null;default:automatic" json:"source"`
	Verified bool   `gorm:"column:verified;not null;default:false" json:"verified"`
	Kind     string `gorm:"column:kind;not null;default:work" json:"kind"`
	Note     string `gorm:"column:note" json:"note"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updatedAt"`
	SyncedAt  *time.Time `gorm:"column:synced_at" json:"syncedAt"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
}

func (DayRecord) TableName() string {
	return "day_records"
}

func (d *DayRecord) Dirty() bool {
	return d.SyncedAt == nil
}

func (d *DayRecord) Tombstone() bool {
	return d.DeletedAt != nil && d.SyncedAt == nil
}

// Edited reports whether a human or assistant has touched the row, in
// which case the automatic pipeline must not overwrite its values.
func (d *DayRecord) Edited() bool {
	return d.Source == SourceManual || d.Source == SourceCorrected
}
