package handlers

import (
	"siteclock.com/siteclock/core"
	v1 "siteclock.com/siteclock/siteclock/v1"
)

func serverZoneToDTO(z core.Zone) v1.ZoneDTO {
	return v1.ZoneDTO{
		ID:        z.ID,
		Name:      z.Name,
		Latitude:  z.Latitude,
		Longitude: z.Longitude,
		Radius:    z.Radius,
		Color:     z.Color,
		Status:    z.Status,
		UpdatedAt: z.UpdatedAt,
		DeletedAt: z.DeletedAt,
	}
}

func serverDayToDTO(d core.DayRecord) v1.DayRecordDTO {
	return v1.DayRecordDTO{
		ID:           d.ID,
		WorkerID:     d.WorkerID,
		Date:         d.Date,
		TotalMinutes: d.TotalMinutes,
		BreakMinutes: d.BreakMinutes,
		ZoneID:       d.ZoneID,
		ZoneName:     d.ZoneName,
		FirstEntry:   d.FirstEntry,
		LastExit:     d.LastExit,
		Source:       d.Source,
		Verified:     d.Verified,
		Kind:         d.Kind,
		Note:         d.Note,
		UpdatedAt:    d.UpdatedAt,
		DeletedAt:    d.DeletedAt,
	}
}

// UpdateDayRequest is the supervisor correction payload. Omitted fields
// keep their stored value.
type UpdateDayRequest struct {
	TotalMinutes *int    `json:"totalMinutes" binding:"omitempty,min=0,max=1440"`
	BreakMinutes *int    `json:"breakMinutes" binding:"omitempty,min=0,max=1440"`
	Kind         *string `json:"kind" binding:"omitempty,oneof=work weather sick dayoff holiday"`
	Note         *string `json:"note" binding:"omitempty,max=500"`
	Verified     *bool   `json:"verified"`
}
