package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"siteclock.com/siteclock/core"
	"siteclock.com/siteclock/web/common"
)

// UpdateDayHandler is the supervisor correction endpoint. A corrected
// row carries provenance "corrected" and a fresh updated_at, so it wins
// last-writer-wins on the next device pull; the device-side ledger then
// protects it from automatic overwrites.
func UpdateDayHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req UpdateDayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		tenant := c.GetString("tenant")

		var updated core.DayRecord
		err := dm.Exec(c.Request.Context(), tenant, func(db *gorm.DB) error {
			var rec core.DayRecord
			if err := db.Where("id = ? AND deleted_at IS NULL", id).First(&rec).Error; err != nil {
				return err
			}

			if req.TotalMinutes != nil {
				rec.TotalMinutes = *req.TotalMinutes
			}
			if req.BreakMinutes != nil {
				rec.BreakMinutes = *req.BreakMinutes
			}
			if req.Kind != nil {
				rec.Kind = *req.Kind
			}
			if req.Note != nil {
				rec.Note = *req.Note
			}
			if req.Verified != nil {
				rec.Verified = *req.Verified
			}
			rec.Source = "corrected"
			rec.UpdatedAt = time.Now()

			if err := db.Save(&rec).Error; err != nil {
				return err
			}
			updated = rec
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, common.NewErrorResponse("day record not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(serverDayToDTO(updated)))
	}
}
