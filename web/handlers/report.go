package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"siteclock.com/siteclock/core"
	"siteclock.com/siteclock/infrastructure/filesystem"
	"siteclock.com/siteclock/report"
	"siteclock.com/siteclock/utils"
	"siteclock.com/siteclock/web/common"
)

// ReportHandler streams the payroll workbook for a date range. With
// upload=true the workbook also lands in the tenant's S3 folder for
// the payroll system to collect.
func ReportHandler(dm *core.DatabaseManager, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := c.Query("from")
		to := c.Query("to")
		if _, err := time.Parse(utils.DateLayout, from); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("query param 'from' must be yyyy-MM-dd"))
			return
		}
		if _, err := time.Parse(utils.DateLayout, to); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("query param 'to' must be yyyy-MM-dd"))
			return
		}

		tenant := c.GetString("tenant")

		var rows []core.DayRecord
		if err := dm.Exec(c.Request.Context(), tenant, func(db *gorm.DB) error {
			return db.Where("date >= ? AND date <= ? AND deleted_at IS NULL", from, to).
				Order("worker_id, date").Find(&rows).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		f, err := report.BuildPayroll(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		filename := fmt.Sprintf("payroll_%s_%s.xlsx", from, to)

		if c.Query("upload") == "true" && bucket != "" {
			key := fmt.Sprintf("%s/%s", tenant, filename)
			if err := filesystem.WriteFile(bucket, key, c.Request.Context(), bytes.NewReader(buf.Bytes())); err != nil {
				c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
				return
			}
			fmt.Printf("[INFO] payroll report uploaded to s3://%s/%s\n", bucket, key)
		}

		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
