package reconcile

import (
	v1 "siteclock.com/siteclock/siteclock/v1"
	"siteclock.com/siteclock/tracker/model"
)

func zoneToDTO(z model.Zone) v1.ZoneDTO {
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

func zoneFromDTO(dto v1.ZoneDTO) model.Zone {
	return model.Zone{
		ID:        dto.ID,
		Name:      dto.Name,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		Radius:    dto.Radius,
		Color:     dto.Color,
		Status:    dto.Status,
		UpdatedAt: dto.UpdatedAt,
		DeletedAt: dto.DeletedAt,
	}
}

func dayToDTO(d model.DayRecord) v1.DayRecordDTO {
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

func dayFromDTO(dto v1.DayRecordDTO) model.DayRecord {
	return model.DayRecord{
		ID:           dto.ID,
		WorkerID:     dto.WorkerID,
		Date:         dto.Date,
		TotalMinutes: dto.TotalMinutes,
		BreakMinutes: dto.BreakMinutes,
		ZoneID:       dto.ZoneID,
		ZoneName:     dto.ZoneName,
		FirstEntry:   dto.FirstEntry,
		LastExit:     dto.LastExit,
		Source:       dto.Source,
		Verified:     dto.Verified,
		Kind:         dto.Kind,
		Note:         dto.Note,
		UpdatedAt:    dto.UpdatedAt,
		DeletedAt:    dto.DeletedAt,
	}
}

func auditToDTO(a model.AuditRecord) v1.AuditRecordDTO {
	return v1.AuditRecordDTO{
		ID:         a.ID,
		WorkerID:   a.WorkerID,
		Kind:       a.Kind,
		ZoneID:     a.ZoneID,
		SessionID:  a.SessionID,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
		Accuracy:   a.Accuracy,
		RecordedAt: a.RecordedAt,
	}
}
