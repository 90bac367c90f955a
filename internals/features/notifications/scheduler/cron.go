// internals/features/notifications/scheduler/cron.go
package scheduler

import (
	"context"
	"log"
	"time"

	"refqa_backend/internals/configs"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 4 * time.Minute

// StartCron mendaftarkan job harian. Panggil dari main.go setelah DB & antrian siap.
func StartCron(j *Jobs) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	// pagi: ulang tahun hari ini + murid tidak aktif
	if _, err := c.AddFunc(configs.CronMorning, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := j.CheckBirthdays(ctx, true); err != nil {
			log.Printf("[CRON] birthday (pagi) error: %v", err)
		}
		if _, err := j.CheckInactiveStudents(ctx); err != nil {
			log.Printf("[CRON] inactive error: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	// malam: ulang tahun besok
	if _, err := c.AddFunc(configs.CronEvening, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := j.CheckBirthdays(ctx, false); err != nil {
			log.Printf("[CRON] birthday (malam) error: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	// ledger sync lama
	if _, err := c.AddFunc(configs.CronPrune, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := j.PruneChangeLogs(ctx, configs.ChangeLogRetentionDays); err != nil {
			log.Printf("[CRON] prune change log error: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[CRON] started morning=%q evening=%q prune=%q", configs.CronMorning, configs.CronEvening, configs.CronPrune)
	return c, nil
}
