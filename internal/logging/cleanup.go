package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/models"
	"gorm.io/gorm"
)

const LogRetention = 30 * 24 * time.Hour

// PruneSystemLogs deletes system_logs written before cutoff.
func PruneSystemLogs(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup prunes system_logs older than LogRetention once a day until
// done is closed.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := PruneSystemLogs(db, time.Now().Add(-LogRetention))
				if err != nil {
					slog.Error("log cleanup failed", "action", "log_cleanup", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
