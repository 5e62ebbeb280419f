package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"siteclock.com/siteclock/core"
	v1 "siteclock.com/siteclock/siteclock/v1"
	"siteclock.com/siteclock/utils"
	"siteclock.com/siteclock/web/common"
)

// PushHandler accepts a device's dirty rows. Every accepted id is
// echoed back in the ack; the device only marks rows synced (and only
// purges tombstones) for ids the ack names.
func PushHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var push v1.PushRequest
		if err := c.ShouldBindJSON(&push); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		workerID := c.GetString("workerId")
		tenant := c.GetString("tenant")

		ack := v1.PushAck{ServerTime: time.Now().Unix()}

		if err := dm.Exec(c.Request.Context(), tenant, func(db *gorm.DB) error {
			zoneRows := append(push.Zones.Created, push.Zones.Updated...)
			synced, err := upsertZones(db, zoneRows)
			if err != nil {
				return err
			}
			ack.SyncedZoneIDs = synced

			dayRows := append(push.Days.Created, push.Days.Updated...)
			synced, err = upsertDays(db, workerID, dayRows)
			if err != nil {
				return err
			}
			ack.SyncedDayIDs = synced

			if err := insertAudit(db, workerID, push.Audit.Created); err != nil {
				return err
			}
			ack.SyncedAuditIDs = utils.Map(push.Audit.Created, func(a v1.AuditRecordDTO) string { return a.ID })

			deleted, err := softDeleteZones(db, push.Zones.Deleted)
			if err != nil {
				return err
			}
			ack.DeletedZoneIDs = deleted

			deleted, err = softDeleteDays(db, workerID, push.Days.Deleted)
			if err != nil {
				return err
			}
			ack.DeletedDayIDs = deleted

			return nil
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(ack))
	}
}

// PullHandler returns everything that changed since the device's
// lastPulledAt: zones tenant-wide, day records for the authenticated
// worker only.
func PullHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pull v1.PullRequest
		if err := c.ShouldBindJSON(&pull); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		workerID := c.GetString("workerId")
		tenant := c.GetString("tenant")
		since := time.Unix(pull.LastPulledAt, 0)

		resp := v1.PullResponse{Timestamp: time.Now().Unix()}

		if err := dm.Exec(c.Request.Context(), tenant, func(db *gorm.DB) error {
			var zones []core.Zone
			if err := db.Where("updated_at > ?", since).Find(&zones).Error; err != nil {
				return err
			}
			for _, z := range zones {
				if z.DeletedAt != nil {
					resp.DeletedZoneIDs = append(resp.DeletedZoneIDs, z.ID)
					continue
				}
				resp.Zones = append(resp.Zones, serverZoneToDTO(z))
			}

			var days []core.DayRecord
			if err := db.Where("worker_id = ? AND updated_at > ?", workerID, since).Find(&days).Error; err != nil {
				return err
			}
			for _, d := range days {
				if d.DeletedAt != nil {
					resp.DeletedDayIDs = append(resp.DeletedDayIDs, d.ID)
					continue
				}
				resp.Days = append(resp.Days, serverDayToDTO(d))
			}

			return nil
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(resp))
	}
}

// upsertZones bulk-upserts the incoming zones, skipping any row whose
// stored updated_at is at least as new (last-writer-wins). Skipped rows
// are still acked: the device's copy is stale, not unsynced, and the
// next pull delivers the winner.
func upsertZones(db *gorm.DB, rows []v1.ZoneDTO) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := utils.Map(rows, func(z v1.ZoneDTO) string { return z.ID })

	existing, err := existingTimestamps(db, &core.Zone{}, ids)
	if err != nil {
		return nil, err
	}

	var winners []core.Zone
	for _, dto := range rows {
		if stored, ok := existing[dto.ID]; ok && !dto.UpdatedAt.After(stored) {
			continue
		}
		winners = append(winners, core.Zone{
			ID:        dto.ID,
			Name:      dto.Name,
			Latitude:  dto.Latitude,
			Longitude: dto.Longitude,
			Radius:    dto.Radius,
			Color:     dto.Color,
			Status:    dto.Status,
			UpdatedAt: dto.UpdatedAt,
			DeletedAt: dto.DeletedAt,
		})
	}

	if len(winners) > 0 {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&winners).Error; err != nil {
			return nil, err
		}
	}

	return ids, nil
}

func upsertDays(db *gorm.DB, workerID string, rows []v1.DayRecordDTO) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	ids := utils.Map(rows, func(d v1.DayRecordDTO) string { return d.ID })

	existing, err := existingTimestamps(db, &core.DayRecord{}, ids)
	if err != nil {
		return nil, err
	}

	var winners []core.DayRecord
	for _, dto := range rows {
		if stored, ok := existing[dto.ID]; ok && !dto.UpdatedAt.After(stored) {
			continue
		}
		winners = append(winners, core.DayRecord{
			ID:           dto.ID,
			WorkerID:     workerID,
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
		})
	}

	if len(winners) > 0 {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&winners).Error; err != nil {
			return nil, err
		}
	}

	return ids, nil
}

// insertAudit appends proof records. The table is append-only: id
// conflicts (a retried push) are ignored, never updated.
func insertAudit(db *gorm.DB, workerID string, rows []v1.AuditRecordDTO) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now()
	records := utils.Map(rows, func(a v1.AuditRecordDTO) core.AuditRecord {
		return core.AuditRecord{
			ID:         a.ID,
			WorkerID:   workerID,
			Kind:       a.Kind,
			ZoneID:     a.ZoneID,
			SessionID:  a.SessionID,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			Accuracy:   a.Accuracy,
			RecordedAt: a.RecordedAt,
			ReceivedAt: now,
		}
	})

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&records).Error
}

func softDeleteZones(db *gorm.DB, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	now := time.Now()
	if err := db.Model(&core.Zone{}).Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"status":     "deleted",
			"deleted_at": now,
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func softDeleteDays(db *gorm.DB, workerID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	now := time.Now()
	if err := db.Model(&core.DayRecord{}).Where("id IN ? AND worker_id = ?", ids, workerID).
		UpdateColumns(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func existingTimestamps(db *gorm.DB, entity interface{}, ids []string) (map[string]time.Time, error) {
	var rows []struct {
		ID        string
		UpdatedAt time.Time
	}
	if err := db.Model(entity).Select("id", "updated_at").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.ID] = row.UpdatedAt
	}
	return out, nil
}
