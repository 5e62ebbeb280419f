package model

import "time"

// ActiveSession is the one-row durable mirror of the open session, so a
// session survives the host OS killing and later reviving the process.
type ActiveSession struct {
	WorkerID  string    `gorm:"column:worker_id;primaryKey" json:"workerId"`
	SessionID string    `gorm:"column:session_id;not null" json:"sessionId"`
	ZoneID    string    `gorm:"column:zone_id;not null" json:"zoneId"`
	ZoneName  string    `gorm:"column:zone_name" json:"zoneName"`
	EnteredAt time.Time `gorm:"column:entered_at;not null" json:"enteredAt"`

	BreakSeconds int `gorm:"column:break_seconds;not null;default:0" json:"breakSeconds"`
	// CreditedMinutes is how many minutes of this session chain have
	// already been added to the day record by earlier exits that were
	// later merged away.
	CreditedMinutes int `gorm:"column:credited_minutes;not null;default:0" json:"creditedMinutes"`

	Verified  bool      `gorm:"column:verified;not null;default:true" json:"verified"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (ActiveSession) TableName() string {
	return "active_session"
}
