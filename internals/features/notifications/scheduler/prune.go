// internals/features/notifications/scheduler/prune.go
package scheduler

import (
	"context"
	"log"
	"time"

	syncModel "refqa_backend/internals/features/sync/model"
)

// PruneChangeLogs menghapus ledger sync yang lebih tua dari retentionDays.
// Row entity yang soft-deleted tidak disentuh: device lain masih butuh tombstone-nya.
func (j *Jobs) PruneChangeLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := j.now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	res := j.DB.WithContext(ctx).
		Where("applied_at < ?", cutoff).
		Delete(&syncModel.ChangeLogModel{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[CRON] prune: %d change log dihapus (cutoff=%s)", res.RowsAffected, cutoff.Format(time.RFC3339))
	} else {
		log.Printf("[CRON] prune: tidak ada change log lama")
	}
	return res.RowsAffected, nil
}
