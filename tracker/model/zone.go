package model

import "time"

const (
	ZoneStatusActive        = "active"
	ZoneStatusPendingDelete = "pending_delete"
	ZoneStatusDeleted       = "deleted"
)

// MinZoneRadius is the smallest geofence radius the platform location
// providers will reliably fire transitions for.
const MinZoneRadius = 100.0

type Zone struct {
	ID        string  `gorm:"column:id;primaryKey" json:"id"`
	Name      string  `gorm:"column:name;not null" json:"name"`
	Latitude  float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64 `gorm:"column:longitude;not null" json:"longitude"`
	Radius    float64 `gorm:"column:radius;not null" json:"radius"`
	Color     string  `gorm:"column:color" json:"color"`
	Status    string  `gorm:"column:status;not null;default:active" json:"status"`

	LastSeenAt *time.Time `gorm:"column:last_seen_at" json:"lastSeenAt"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"column:updated_at" json:"updatedAt"`
	SyncedAt   *time.Time `gorm:"column:synced_at" json:"syncedAt"`
	DeletedAt  *time.Time `gorm:"column:deleted_at" json:"deletedAt"`
}

func (Zone) TableName() string {
	return "zones"
}

// Dirty reports whether the row has local changes not yet acknowledged
// by the backend.
func (z *Zone) Dirty() bool {
	return z.SyncedAt == nil
}

// Tombstone reports whether the row is a soft delete awaiting remote
// acknowledgment before it can be purged.
func (z *Zone) Tombstone() bool {
	return z.DeletedAt != nil && z.SyncedAt == nil
}

// ClampRadius enforces the provider-imposed minimum radius.
func (z *Zone) ClampRadius() {
	if z.Radius < MinZoneRadius {
		z.Radius = MinZoneRadius
	}
}
