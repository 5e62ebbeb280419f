package v1

import "time"

// Row DTOs carry the wall-clock update timestamp the reconciler uses
// for last-writer-wins comparison; synced timestamps never cross the
// wire.

type ZoneDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Radius    float64    `json:"radius"`
	Color     string     `json:"color"`
	Status    string     `json:"status"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type DayRecordDTO struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"workerId"`
	Date         string     `json:"date"`
	TotalMinutes int        `json:"totalMinutes"`
	BreakMinutes int        `json:"breakMinutes"`
	ZoneID       string     `json:"zoneId"`
	ZoneName     string     `json:"zoneName"`
	FirstEntry   *time.Time `json:"firstEntry,omitempty"`
	LastExit     *time.Time `json:"lastExit,omitempty"`
	Source       string     `json:"source"`
	Verified     bool       `json:"verified"`
	Kind         string     `json:"kind"`
	Note         string     `json:"note"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

type AuditRecordDTO struct {
	ID         string    `json:"id"`
	WorkerID   string    `json:"workerId"`
	Kind       string    `json:"kind"`
	ZoneID     string    `json:"zoneId"`
	SessionID  string    `json:"sessionId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recordedAt"`
}

// TableChanges groups one table's outbound rows per push.
type TableChanges[T any] struct {
	Created []T      `json:"created"`
	Updated []T      `json:"updated"`
	Deleted []string `json:"deleted"`
}

type PushRequest struct {
	Zones        TableChanges[ZoneDTO]        `json:"zones"`
	Days         TableChanges[DayRecordDTO]   `json:"days"`
	Audit        TableChanges[AuditRecordDTO] `json:"audit"`
	LastPulledAt int64                        `json:"lastPulledAt"`
}

// PushAck lists the rows the backend durably accepted. Only these may
// be marked synced locally; only acked deletions may be purged.
type PushAck struct {
	SyncedZoneIDs  []string `json:"syncedZoneIds"`
	SyncedDayIDs   []string `json:"syncedDayIds"`
	SyncedAuditIDs []string `json:"syncedAuditIds"`
	DeletedZoneIDs []string `json:"deletedZoneIds"`
	DeletedDayIDs  []string `json:"deletedDayIds"`
	ServerTime     int64    `json:"serverTime"`
}

type PullRequest struct {
	LastPulledAt int64 `json:"lastPulledAt"`
}

type PullResponse struct {
	Zones          []ZoneDTO      `json:"zones"`
	Days           []DayRecordDTO `json:"days"`
	DeletedZoneIDs []string       `json:"deletedZoneIds"`
	DeletedDayIDs  []string       `json:"deletedDayIds"`
	Timestamp      int64          `json:"timestamp"`
}
