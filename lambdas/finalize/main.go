package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"gorm.io/gorm"

	"siteclock.com/siteclock/core"
	"siteclock.com/siteclock/infrastructure/communication"
	"siteclock.com/siteclock/infrastructure/devops"
)

// FinalizeEvent is the scheduled maintenance trigger. Databases narrows
// the run to specific tenant schemas; nil means all of them.
type FinalizeEvent struct {
	Databases     *[]string `json:"databases"`
	DryRun        bool      `json:"dryRun"`
	RetentionDays int       `json:"retentionDays"`
	StaleDays     int       `json:"staleDays"`
}

type FinalizeStats struct {
	PurgedZones    int `json:"purgedZones"`
	PurgedDays     int `json:"purgedDays"`
	UnverifiedDays int `json:"unverifiedDays"`
}

// Finalize purges tombstones past retention and counts stale
// unverified day records per tenant. Devices have already purged their
// copies: a server tombstone past retention can no longer be pulled by
// anyone who needs it.
func Finalize(ctx context.Context, dsn string, databases *[]string, dryRun bool, retentionDays, staleDays int) (map[string]FinalizeStats, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if staleDays <= 0 {
		staleDays = 7
	}

	dm, err := core.New(dsn, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	var targetDatabases []string
	if databases == nil {
		fmt.Printf("[INFO] No databases provided, fetching all databases...\n")
		targetDatabases, err = dm.GetAllDatabases(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get all databases: %w", err)
		}
	} else {
		targetDatabases = *databases
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	staleCutoff := time.Now().AddDate(0, 0, -staleDays).Format("2006-01-02")

	results := make(map[string]FinalizeStats)
	for _, dbName := range targetDatabases {
		fmt.Printf("[INFO] Finalizing database: %s\n", dbName)
		err := dm.Exec(ctx, dbName, func(db *gorm.DB) error {
			stats, err := finalizeSchema(db, cutoff, staleCutoff, dryRun)
			if err != nil {
				return err
			}
			results[dbName] = stats
			return nil
		})
		if err != nil {
			fmt.Printf("[ERROR] failed to finalize database %s: %v\n", dbName, err)
			continue
		}
	}

	fmt.Printf("[INFO] Finished finalizing %d database(s)\n", len(results))
	return results, nil
}

func finalizeSchema(db *gorm.DB, cutoff time.Time, staleCutoff string, dryRun bool) (FinalizeStats, error) {
	var stats FinalizeStats

	var count int64
	if err := db.Model(&core.DayRecord{}).
		Where("verified = ? AND deleted_at IS NULL AND date < ?", false, staleCutoff).
		Count(&count).Error; err != nil {
		return stats, fmt.Errorf("failed to count unverified days: %w", err)
	}
	stats.UnverifiedDays = int(count)

	if dryRun {
		var zones, days int64
		if err := db.Model(&core.Zone{}).Where("deleted_at < ?", cutoff).Count(&zones).Error; err != nil {
			return stats, err
		}
		if err := db.Model(&core.DayRecord{}).Where("deleted_at < ?", cutoff).Count(&days).Error; err != nil {
			return stats, err
		}
		stats.PurgedZones = int(zones)
		stats.PurgedDays = int(days)
		return stats, nil
	}

	res := db.Where("deleted_at < ?", cutoff).Delete(&core.Zone{})
	if res.Error != nil {
		return stats, fmt.Errorf("failed to purge zones: %w", res.Error)
	}
	stats.PurgedZones = int(res.RowsAffected)

	res = db.Where("deleted_at < ?", cutoff).Delete(&core.DayRecord{})
	if res.Error != nil {
		return stats, fmt.Errorf("failed to purge day records: %w", res.Error)
	}
	stats.PurgedDays = int(res.RowsAffected)

	return stats, nil
}

func HandleRequest(ctx context.Context, event FinalizeEvent) (map[string]FinalizeStats, error) {
	eventJson, _ := json.Marshal(event)
	fmt.Printf("[INFO] Event: %s\n", string(eventJson))

	cfg, err := devops.LoadServerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load server config from SSM: %w", err)
	}

	results, err := Finalize(ctx, cfg.DSN, event.Databases, event.DryRun, event.RetentionDays, event.StaleDays)
	if err != nil {
		return nil, err
	}

	if os.Getenv("SLACK_BOT_TOKEN") != "" {
		summary, _ := json.Marshal(results)
		if err := communication.ConnectSlack().Info(fmt.Sprintf("siteclock finalize run: %s", string(summary))); err != nil {
			fmt.Printf("[ERROR] failed to post finalize summary to Slack: %v\n", err)
		}
	}

	return results, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
	} else {
		dsn := os.Getenv("DSN")
		if dsn == "" {
			fmt.Printf("[ERROR] DSN is required for a local run\n")
			os.Exit(1)
		}

		results, err := Finalize(context.Background(), dsn, nil, true, 30, 7)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}

		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Printf("%s\n", string(out))
	}
}
