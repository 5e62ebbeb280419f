package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"siteclock.com/siteclock/core"
	"siteclock.com/siteclock/utils"
)

const sheetName = "Payroll"

var headers = []string{"Worker", "Date", "Zone", "First Entry", "Last Exit", "Break (min)", "Total (min)", "Hours", "Source", "Verified"}

// BuildPayroll renders ledger rows into a payroll workbook: one line
// per worker-day, a subtotal line per worker. Tombstoned rows must be
// filtered out by the caller.
func BuildPayroll(rows []core.DayRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	byWorker := utils.GroupBy(rows, func(d core.DayRecord) string { return d.WorkerID })

	workers := make([]string, 0, len(byWorker))
	for w := range byWorker {
		workers = append(workers, w)
	}
	sort.Strings(workers)

	rowNum := 2
	for _, worker := range workers {
		days := byWorker[worker]
		sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

		workerTotal := 0
		for _, d := range days {
			firstEntry := ""
			if d.FirstEntry != nil {
				firstEntry = d.FirstEntry.Format("15:04")
			}
			lastExit := ""
			if d.LastExit != nil {
				lastExit = d.LastExit.Format("15:04")
			}

			values := []interface{}{
				worker, d.Date, d.ZoneName, firstEntry, lastExit,
				d.BreakMinutes, d.TotalMinutes,
				float64(d.TotalMinutes) / 60.0,
				d.Source, d.Verified,
			}
			if err := setRow(f, rowNum, values); err != nil {
				return nil, err
			}
			workerTotal += d.TotalMinutes
			rowNum++
		}

		subtotal := []interface{}{
			worker, "TOTAL", "", "", "", "",
			workerTotal, float64(workerTotal) / 60.0, "", "",
		}
		if err := setRow(f, rowNum, subtotal); err != nil {
			return nil, err
		}
		rowNum += 2
	}

	if err := f.SetColWidth(sheetName, "A", "C", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	return f, nil
}

func setRow(f *excelize.File, rowNum int, values []interface{}) error {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
	}
	return nil
}
